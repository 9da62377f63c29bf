package mockapi

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// maxImportSize caps multipart uploads.
const maxImportSize = 5 << 20

func (s *Server) transactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.listTransactions)
	r.Post("/", s.createTransaction)
	r.Get("/export", s.exportTransactions)
	r.Post("/bulk", s.bulkTransactions)
	r.Post("/import", s.importTransactions)
	r.Get("/user/{userId}/summary", s.transactionSummary)
	r.Get("/{id}", s.getTransaction)
	r.Put("/{id}", s.updateTransaction)
	r.Delete("/{id}", s.deleteTransactionHandler)
	r.Post("/{id}/duplicate", s.duplicateTransaction)
	return r
}

type transactionInput struct {
	UserID          string                 `json:"userId"`
	Category        string                 `json:"category"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     string                 `json:"description"`
	Type            models.TransactionType `json:"type"`
	Date            string                 `json:"date"`
	Tags            []string               `json:"tags"`
	IsRecurring     bool                   `json:"isRecurring"`
	RecurringPeriod string                 `json:"recurringPeriod"`
}

func (in transactionInput) validate() map[string]string {
	fields := map[string]string{}
	if !in.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	}
	if !in.Type.Valid() {
		fields["type"] = "type must be income or expense"
	}
	if strings.TrimSpace(in.Category) == "" {
		fields["category"] = "category is required"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "description is required"
	}
	if in.Date != "" {
		if _, ok := dayOf(in.Date); !ok {
			fields["date"] = "date must be YYYY-MM-DD"
		}
	}
	return fields
}

// build turns validated input into a transaction owned by caller, or by
// in.UserID when the caller is an admin.
func (in transactionInput) build(caller *models.User, now time.Time) *models.Transaction {
	owner := caller.ID
	if in.UserID != "" && caller.IsAdmin() {
		owner = in.UserID
	}
	date := now.Format(time.DateOnly)
	if d, ok := dayOf(in.Date); ok {
		date = d
	}
	return &models.Transaction{
		ID:              newID(),
		UserID:          owner,
		Category:        strings.TrimSpace(in.Category),
		Amount:          in.Amount,
		Date:            date,
		Description:     strings.TrimSpace(in.Description),
		Type:            in.Type,
		Tags:            in.Tags,
		IsRecurring:     in.IsRecurring,
		RecurringPeriod: in.RecurringPeriod,
		CreatedAt:       stamp(now),
		UpdatedAt:       stamp(now),
	}
}

// dayOf accepts a date or an RFC 3339 timestamp and returns the date part.
func dayOf(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len(v) < len(time.DateOnly) {
		return "", false
	}
	if _, err := time.Parse(time.DateOnly, v[:len(time.DateOnly)]); err != nil {
		return "", false
	}
	return v[:len(time.DateOnly)], true
}

// txQuery is the filter shared by listing and export.
type txQuery struct {
	category string
	txType   string
	from     string
	to       string
	search   string
}

func parseTxQuery(r *http.Request) txQuery {
	q := r.URL.Query()
	tq := txQuery{
		category: q.Get("category"),
		txType:   q.Get("type"),
		search:   strings.ToLower(strings.TrimSpace(q.Get("q"))),
	}
	tq.from, _ = dayOf(cmp.Or(q.Get("from"), q.Get("startDate")))
	tq.to, _ = dayOf(cmp.Or(q.Get("to"), q.Get("endDate")))
	return tq
}

func (q txQuery) match(tx models.Transaction) bool {
	switch {
	case q.category != "" && !strings.EqualFold(tx.Category, q.category):
		return false
	case q.txType != "" && string(tx.Type) != q.txType:
		return false
	case q.from != "" && tx.Date < q.from:
		return false
	case q.to != "" && tx.Date > q.to:
		return false
	case q.search != "" && !strings.Contains(strings.ToLower(tx.Description), q.search) &&
		!strings.Contains(strings.ToLower(tx.Category), q.search):
		return false
	}
	return true
}

// scopeOwner resolves whose rows a request covers. An empty result means
// every user. Non-admins only ever see their own rows.
func scopeOwner(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	u := currentUser(r)
	if requested == "" {
		if u.IsAdmin() {
			return "", true
		}
		return u.ID, true
	}
	if requested != u.ID && !u.IsAdmin() {
		writeError(w, http.StatusForbidden, codeForbidden, "cannot access another user's transactions")
		return "", false
	}
	return requested, true
}

func sortTransactions(txs []models.Transaction, order string) {
	desc := !strings.HasPrefix(order, "+") && order != "date" && order != "amount"
	byAmount := strings.TrimLeft(order, "+-") == "amount"
	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		c := strings.Compare(a.Date, b.Date)
		if byAmount {
			c = a.Amount.Cmp(b.Amount)
		}
		if desc {
			return -c
		}
		return c
	})
}

// selectTransactions returns the filtered, sorted rows for owner. Caller holds s.mu.
func (s *Server) selectTransactions(owner string, q txQuery, order string) []models.Transaction {
	out := []models.Transaction{}
	for _, tx := range s.db.transactionsOf(owner) {
		if q.match(tx) {
			out = append(out, tx)
		}
	}
	sortTransactions(out, order)
	return out
}

// listTransactions answers with {data: {transactions, pagination}}.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := scopeOwner(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	page, limit := pageParams(r)

	s.mu.Lock()
	txs := s.selectTransactions(owner, parseTxQuery(r), r.URL.Query().Get("sort"))
	s.mu.Unlock()

	items, p := paginate(txs, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"transactions": items, "pagination": p},
	})
}

// txOr404 returns the {id} transaction when the caller may see it. Caller holds s.mu.
func (s *Server) txOr404(w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {
	tx, ok := s.db.transactions[chi.URLParam(r, "id")]
	if !ok || (tx.UserID != currentUser(r).ID && !currentUser(r).IsAdmin()) {
		writeError(w, http.StatusNotFound, codeNotFound, "transaction not found")
		return nil, false
	}
	return tx, true
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionInput
	if !decode(w, r, &in) {
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx := in.build(currentUser(r), s.now())
	if _, ok := s.db.users[tx.UserID]; !ok {
		writeValidation(w, map[string]string{"userId": "unknown user"})
		return
	}
	s.db.putTransaction(tx)
	s.db.log(s.now(), currentUser(r), "create", "transactions")

	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"transaction": tx}})
}

// updateTransaction answers with the bare transaction.
func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category    *string                 `json:"category"`
		Amount      *decimal.Decimal        `json:"amount"`
		Description *string                 `json:"description"`
		Type        *models.TransactionType `json:"type"`
		Date        *string                 `json:"date"`
		Tags        []string                `json:"tags"`
	}
	if !decode(w, r, &body) {
		return
	}

	fields := map[string]string{}
	if body.Amount != nil && !body.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	}
	if body.Type != nil && !body.Type.Valid() {
		fields["type"] = "type must be income or expense"
	}
	var date string
	if body.Date != nil {
		d, ok := dayOf(*body.Date)
		if !ok {
			fields["date"] = "date must be YYYY-MM-DD"
		}
		date = d
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txOr404(w, r)
	if !ok {
		return
	}
	setIf(&tx.Category, body.Category)
	setIf(&tx.Description, body.Description)
	if body.Amount != nil {
		tx.Amount = *body.Amount
	}
	if body.Type != nil {
		tx.Type = *body.Type
	}
	if date != "" {
		tx.Date = date
	}
	if body.Tags != nil {
		tx.Tags = body.Tags
	}
	tx.UpdatedAt = stamp(s.now())
	s.db.log(s.now(), currentUser(r), "update", "transactions")

	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) deleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txOr404(w, r)
	if !ok {
		return
	}
	s.db.deleteTransaction(tx.ID)
	s.db.log(s.now(), currentUser(r), "delete", "transactions")
	writeJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

func (s *Server) duplicateTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txOr404(w, r)
	if !ok {
		return
	}
	dup := *tx
	dup.ID = newID()
	dup.Tags = slices.Clone(tx.Tags)
	dup.CreatedAt = stamp(s.now())
	dup.UpdatedAt = dup.CreatedAt
	s.db.putTransaction(&dup)
	s.db.log(s.now(), currentUser(r), "duplicate", "transactions")

	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"transaction": dup}})
}

func (s *Server) bulkTransactions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transactions []transactionInput `json:"transactions"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.Transactions) == 0 {
		writeValidation(w, map[string]string{"transactions": "at least one transaction is required"})
		return
	}
	for i, in := range body.Transactions {
		if fields := in.validate(); len(fields) > 0 {
			for k, v := range fields {
				fields[k] = fmt.Sprintf("row %d: %s", i+1, v)
			}
			writeValidation(w, fields)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	created := make([]*models.Transaction, 0, len(body.Transactions))
	for _, in := range body.Transactions {
		tx := in.build(currentUser(r), s.now())
		s.db.putTransaction(tx)
		created = append(created, tx)
	}
	s.db.log(s.now(), currentUser(r), "bulk-create", "transactions")

	writeJSON(w, http.StatusCreated, map[string]any{"transactions": created})
}

// importTransactions reads a CSV upload with the columns
// date,type,amount,category,description. Bad rows are reported, not fatal.
func (s *Server) importTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, map[string]string{"file": "a CSV file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	rows, err := readImportRows(file)
	if err != nil {
		writeValidation(w, map[string]string{"file": err.Error()})
		return
	}

	result := models.ImportResult{}
	s.mu.Lock()
	for i, in := range rows {
		if fields := in.validate(); len(fields) > 0 {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", i+2, firstMessage(fields)))
			continue
		}
		s.db.putTransaction(in.build(currentUser(r), s.now()))
		result.Imported++
	}
	s.db.log(s.now(), currentUser(r), "import", "transactions")
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func readImportRows(src io.Reader) ([]transactionInput, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "type", "amount", "category", "description"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var rows []transactionInput
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}
		get := func(name string) string {
			if i := cols[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		amount, _ := decimal.NewFromString(get("amount"))
		rows = append(rows, transactionInput{
			Date:        get("date"),
			Type:        models.TransactionType(strings.ToLower(get("type"))),
			Amount:      amount.Abs(),
			Category:    get("category"),
			Description: get("description"),
		})
	}
	return rows, nil
}

func firstMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return fields[keys[0]]
}

func (s *Server) exportTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := scopeOwner(w, r, "")
	if !ok {
		return
	}

	q := parseTxQuery(r)
	if id := r.URL.Query().Get("categoryId"); id != "" {
		s.mu.Lock()
		if cat, found := s.db.categories[id]; found {
			q.category = cat.Name
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	txs := s.selectTransactions(owner, q, "-date")
	s.mu.Unlock()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"date", "type", "amount", "category", "description"})
	for _, tx := range txs {
		_ = cw.Write([]string{tx.Date, string(tx.Type), tx.Amount.StringFixed(2), tx.Category, tx.Description})
	}
	cw.Flush()

	writeBlob(w, "text/csv", "transactions.csv", buf.Bytes())
}

// periodDays maps the summary period names to day counts.
var periodDays = map[string]int{"7d": 7, "30d": 30, "90d": 90, "1y": 365}

// transactionSummary answers in the aggregate shape: expenses negative,
// categories keyed by _id with total_amount.
func (s *Server) transactionSummary(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "userId")
	if !ownerOrAdmin(w, r, owner) {
		return
	}
	days, ok := periodDays[r.URL.Query().Get("period")]
	if !ok {
		days = 30
	}
	from := s.now().AddDate(0, 0, -days).Format(time.DateOnly)

	s.mu.Lock()
	txs := s.selectTransactions(owner, txQuery{from: from}, "-date")
	s.mu.Unlock()

	type group struct {
		name  string
		typ   models.TransactionType
		total decimal.Decimal
		count int
	}
	var groups []*group
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		signed := tx.SignedAmount()
		if tx.Type == models.TypeIncome {
			income = income.Add(signed)
		} else {
			expenses = expenses.Add(signed)
		}

		idx := slices.IndexFunc(groups, func(g *group) bool { return g.name == tx.Category && g.typ == tx.Type })
		if idx < 0 {
			groups = append(groups, &group{name: tx.Category, typ: tx.Type})
			idx = len(groups) - 1
		}
		groups[idx].total = groups[idx].total.Add(signed)
		groups[idx].count++
	}

	categories := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		categories = append(categories, map[string]any{
			"_id":          g.name,
			"category":     g.name,
			"type":         g.typ,
			"total_amount": g.total,
			"count":        g.count,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]any{
			"income":             income,
			"expenses":           expenses,
			"balance":            income.Add(expenses),
			"total_transactions": len(txs),
		},
		"categories": categories,
	})
}
