package mockapi

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

func (s *Server) accountRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.listAccounts)
	r.Post("/", s.createAccount)
	r.Get("/stats", s.accountStats)
	r.Get("/total-balance", s.totalBalance)
	r.Get("/{id}", s.getAccount)
	r.Put("/{id}", s.updateAccount)
	r.Delete("/{id}", s.deleteAccount)
	return r
}

// accountsOf lists one user's accounts in creation order. Caller holds s.mu.
func (s *Server) accountsOf(userID string) []models.Account {
	out := []models.Account{}
	for _, id := range s.db.accountOrder {
		if acc := s.db.accounts[id]; acc.UserID == userID {
			out = append(out, *acc)
		}
	}
	return out
}

// listAccounts answers with {data: [...]}.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	s.mu.Lock()
	accounts := s.accountsOf(currentUser(r).ID)
	s.mu.Unlock()

	accounts = slices.DeleteFunc(accounts, func(acc models.Account) bool {
		return (typ != "" && string(acc.Type) != typ) ||
			(search != "" && !strings.Contains(strings.ToLower(acc.Name), search))
	})
	writeJSON(w, http.StatusOK, map[string]any{"data": accounts})
}

func (s *Server) accountOr404(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	acc, ok := s.db.accounts[chi.URLParam(r, "id")]
	if !ok || acc.UserID != currentUser(r).ID {
		writeError(w, http.StatusNotFound, codeNotFound, "account not found")
		return nil, false
	}
	return acc, true
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accountOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"account": acc}})
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string             `json:"name"`
		Type           models.AccountType `json:"type"`
		Currency       string             `json:"currency"`
		InitialBalance *decimal.Decimal   `json:"initialBalance"`
	}
	if !decode(w, r, &body) {
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(body.Name) == "" {
		fields["name"] = "name is required"
	}
	if !body.Type.Valid() {
		fields["type"] = "unknown account type"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	balance := decimal.Zero
	if body.InitialBalance != nil {
		balance = *body.InitialBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.db.addAccount(s.now(), currentUser(r).ID, strings.TrimSpace(body.Name), body.Type, balance)
	if body.Currency != "" {
		acc.Currency = strings.ToUpper(body.Currency)
	}
	s.db.log(s.now(), currentUser(r), "create", "accounts")
	writeJSON(w, http.StatusCreated, map[string]any{"account": acc})
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     *string             `json:"name"`
		Type     *models.AccountType `json:"type"`
		Currency *string             `json:"currency"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Type != nil && !body.Type.Valid() {
		writeValidation(w, map[string]string{"type": "unknown account type"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accountOr404(w, r)
	if !ok {
		return
	}
	setIf(&acc.Name, body.Name)
	setIf(&acc.Currency, body.Currency)
	if body.Type != nil {
		acc.Type = *body.Type
	}
	acc.UpdatedAt = stamp(s.now())
	writeJSON(w, http.StatusOK, map[string]any{"account": acc})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accountOr404(w, r)
	if !ok {
		return
	}
	delete(s.db.accounts, acc.ID)
	s.db.accountOrder = without(s.db.accountOrder, acc.ID)
	s.db.log(s.now(), currentUser(r), "delete", "accounts")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) accountStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	accounts := s.accountsOf(currentUser(r).ID)
	s.mu.Unlock()

	stats := models.AccountStats{TotalBalance: decimal.Zero, AccountsCount: len(accounts)}
	for _, acc := range accounts {
		stats.TotalBalance = stats.TotalBalance.Add(acc.Balance)
		idx := slices.IndexFunc(stats.ByType, func(t models.AccountTypeStats) bool { return t.Type == acc.Type })
		if idx < 0 {
			stats.ByType = append(stats.ByType, models.AccountTypeStats{Type: acc.Type, TotalBalance: decimal.Zero})
			idx = len(stats.ByType) - 1
		}
		stats.ByType[idx].Count++
		stats.ByType[idx].TotalBalance = stats.ByType[idx].TotalBalance.Add(acc.Balance)
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// totalBalance answers with {data: {totalBalance}}.
func (s *Server) totalBalance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	accounts := s.accountsOf(currentUser(r).ID)
	s.mu.Unlock()

	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.Balance)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"totalBalance": total}})
}
