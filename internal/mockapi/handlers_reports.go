package mockapi

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// defaultReportDays is the window used when a report gets no from/to.
const defaultReportDays = 30

var hundred = decimal.NewFromInt(100)

func (s *Server) reportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/summary", s.reportSummary)
	r.Get("/cashflow", s.reportCashFlow)
	r.Get("/income-expense", s.reportIncomeExpense)
	r.Get("/by-category", s.reportByCategory)
	r.Get("/monthly", s.reportMonthly)
	r.Get("/compare", s.reportCompare)
	r.Get("/export/pdf", s.reportExportPDF)
	r.Get("/export/excel", s.reportExportExcel)
	return r
}

// window reads from/to, defaulting to the last 30 days.
func (s *Server) window(r *http.Request, fromKey, toKey string) models.Period {
	to, ok := dayOf(r.URL.Query().Get(toKey))
	if !ok {
		to = s.now().Format(time.DateOnly)
	}
	from, ok := dayOf(r.URL.Query().Get(fromKey))
	if !ok {
		end, _ := time.Parse(time.DateOnly, to)
		from = end.AddDate(0, 0, -defaultReportDays).Format(time.DateOnly)
	}
	return models.Period{From: from, To: to}
}

// reportRows returns the caller's own transactions inside p.
func (s *Server) reportRows(r *http.Request, p models.Period) []models.Transaction {
	q := txQuery{from: p.From, to: p.To, txType: r.URL.Query().Get("type")}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id := r.URL.Query().Get("categoryId"); id != "" {
		if c, ok := s.db.categories[id]; ok {
			q.category = c.Name
		}
	}
	return s.selectTransactions(currentUser(r).ID, q, "date")
}

func totalsOf(txs []models.Transaction) models.ReportTotals {
	t := models.ReportTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		if tx.Type == models.TypeIncome {
			t.Income = t.Income.Add(tx.Amount)
		} else {
			t.Expense = t.Expense.Add(tx.Amount)
		}
		t.Count++
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// percentChange is (to-from)/from as a percentage, zero when from is zero.
func percentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from.Abs()).Mul(hundred).Round(2)
}

func savingsRate(income, balance decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return balance.Div(income).Mul(hundred).Round(2)
}

func groupKey(tx models.Transaction, by models.ReportGroupBy) (key, label string) {
	day, _ := time.Parse(time.DateOnly, tx.Date)
	switch by {
	case models.GroupByDay:
		return tx.Date, tx.Date
	case models.GroupByWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset).Format(time.DateOnly)
		return start, "Week of " + start
	case models.GroupByMonth:
		return tx.Date[:7], day.Format("January 2006")
	case models.GroupByAccount:
		return "unassigned", "No account"
	default:
		return tx.Category, tx.Category
	}
}

// reportSummary answers with {data: {report}}.
func (s *Server) reportSummary(w http.ResponseWriter, r *http.Request) {
	by := models.ReportGroupBy(r.URL.Query().Get("groupBy"))
	if by == "" {
		by = models.GroupByCategory
	}
	p := s.window(r, "from", "to")
	txs := s.reportRows(r, p)

	var keys []string
	groups := map[string][]models.Transaction{}
	labels := map[string]string{}
	for _, tx := range txs {
		key, label := groupKey(tx, by)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
			labels[key] = label
		}
		groups[key] = append(groups[key], tx)
	}
	if by != models.GroupByCategory {
		slices.Sort(keys)
	}

	report := models.ReportSummary{
		GroupBy: by,
		Period:  p,
		Items:   make([]models.ReportSummaryItem, 0, len(keys)),
		Totals:  totalsOf(txs),
	}
	for _, key := range keys {
		report.Items = append(report.Items, models.ReportSummaryItem{
			Key:          key,
			Label:        labels[key],
			ReportTotals: totalsOf(groups[key]),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"report": report}})
}

func (s *Server) reportCashFlow(w http.ResponseWriter, r *http.Request) {
	p := s.window(r, "from", "to")
	txs := s.reportRows(r, p)

	report := models.CashFlowReport{Period: p, Data: []models.CashFlow{}}
	cumulative := decimal.Zero
	for _, tx := range txs {
		n := len(report.Data)
		if n == 0 || report.Data[n-1].Date != tx.Date {
			report.Data = append(report.Data, models.CashFlow{Date: tx.Date, Income: decimal.Zero, Expense: decimal.Zero})
			n++
		}
		day := &report.Data[n-1]
		if tx.Type == models.TypeIncome {
			day.Income = day.Income.Add(tx.Amount)
		} else {
			day.Expense = day.Expense.Add(tx.Amount)
		}
	}
	for i := range report.Data {
		day := &report.Data[i]
		day.Balance = day.Income.Sub(day.Expense)
		cumulative = cumulative.Add(day.Balance)
		day.CumulativeBalance = cumulative
	}

	totals := totalsOf(txs)
	from, _ := time.Parse(time.DateOnly, p.From)
	to, _ := time.Parse(time.DateOnly, p.To)
	days := int64(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	report.Summary = models.CashFlowSummary{
		TotalIncome:  totals.Income,
		TotalExpense: totals.Expense,
		NetBalance:   totals.Balance,
		AverageDaily: totals.Balance.Div(decimal.NewFromInt(days)).Round(2),
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

func flowTotals(total decimal.Decimal, count int) models.FlowTotals {
	f := models.FlowTotals{Total: total, Count: count, Average: decimal.Zero}
	if count > 0 {
		f.Average = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}
	return f
}

func incomeExpense(p models.Period, txs []models.Transaction) models.IncomeExpenseReport {
	var incomes, expenses int
	for _, tx := range txs {
		if tx.Type == models.TypeIncome {
			incomes++
		} else {
			expenses++
		}
	}
	t := totalsOf(txs)
	return models.IncomeExpenseReport{
		Period:      p,
		Income:      flowTotals(t.Income, incomes),
		Expense:     flowTotals(t.Expense, expenses),
		Balance:     t.Balance,
		SavingsRate: savingsRate(t.Income, t.Balance),
	}
}

// reportIncomeExpense answers with the bare report.
func (s *Server) reportIncomeExpense(w http.ResponseWriter, r *http.Request) {
	p := s.window(r, "from", "to")
	writeJSON(w, http.StatusOK, incomeExpense(p, s.reportRows(r, p)))
}

// previous returns the window of equal length just before p.
func previous(p models.Period) models.Period {
	from, _ := time.Parse(time.DateOnly, p.From)
	to, _ := time.Parse(time.DateOnly, p.To)
	span := to.Sub(from)
	prevTo := from.AddDate(0, 0, -1)
	return models.Period{
		From: prevTo.Add(-span).Format(time.DateOnly),
		To:   prevTo.Format(time.DateOnly),
	}
}

func (s *Server) reportByCategory(w http.ResponseWriter, r *http.Request) {
	p := s.window(r, "from", "to")
	current := s.reportRows(r, p)
	prior := s.reportRows(r, previous(p))

	type key struct {
		name string
		typ  models.TransactionType
	}
	priorTotals := map[key]decimal.Decimal{}
	for _, tx := range prior {
		k := key{tx.Category, tx.Type}
		priorTotals[k] = priorTotals[k].Add(tx.Amount)
	}

	var rows []models.CategoryReport
	typeTotals := map[models.TransactionType]decimal.Decimal{}
	for _, tx := range current {
		idx := slices.IndexFunc(rows, func(c models.CategoryReport) bool {
			return c.CategoryName == tx.Category && c.Type == tx.Type
		})
		if idx < 0 {
			rows = append(rows, models.CategoryReport{
				CategoryID:   strings.ToLower(tx.Category),
				CategoryName: tx.Category,
				Type:         tx.Type,
				Total:        decimal.Zero,
			})
			idx = len(rows) - 1
		}
		rows[idx].Total = rows[idx].Total.Add(tx.Amount)
		rows[idx].Count++
		typeTotals[tx.Type] = typeTotals[tx.Type].Add(tx.Amount)
	}

	for i := range rows {
		row := &rows[i]
		if sum := typeTotals[row.Type]; sum.IsPositive() {
			row.Percentage = row.Total.Div(sum).Mul(hundred).Round(2)
		}
		before := priorTotals[key{row.CategoryName, row.Type}]
		row.ChangePercent = percentChange(before, row.Total)
		switch row.Total.Cmp(before) {
		case 1:
			row.Trend = "up"
		case -1:
			row.Trend = "down"
		default:
			row.Trend = "stable"
		}
	}
	if rows == nil {
		rows = []models.CategoryReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": rows})
}

func (s *Server) reportMonthly(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("months"))
	if err != nil || n < 1 {
		n = 12
	}

	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]models.MonthlyReport, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		t := totalsOf(s.reportRows(r, models.Period{From: start.Format(time.DateOnly), To: end.Format(time.DateOnly)}))
		months = append(months, models.MonthlyReport{
			Month:       start.Format("2006-01"),
			Income:      t.Income,
			Expense:     t.Expense,
			Balance:     t.Balance,
			SavingsRate: savingsRate(t.Income, t.Balance),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

// reportCompare answers with the bare comparison. Changes are percentages
// from period1 to period2.
func (s *Server) reportCompare(w http.ResponseWriter, r *http.Request) {
	p1 := s.window(r, "period1From", "period1To")
	p2 := s.window(r, "period2From", "period2To")

	var out models.PeriodComparison
	out.Period1 = incomeExpense(p1, s.reportRows(r, p1))
	out.Period2 = incomeExpense(p2, s.reportRows(r, p2))
	out.Comparison.IncomeChange = percentChange(out.Period1.Income.Total, out.Period2.Income.Total)
	out.Comparison.ExpenseChange = percentChange(out.Period1.Expense.Total, out.Period2.Expense.Total)
	out.Comparison.BalanceChange = percentChange(out.Period1.Balance, out.Period2.Balance)
	writeJSON(w, http.StatusOK, out)
}

// summaryLines renders the period totals and per-category rows as text.
func (s *Server) summaryLines(r *http.Request) (models.Period, []string) {
	p := s.window(r, "from", "to")
	txs := s.reportRows(r, p)
	t := totalsOf(txs)

	lines := []string{
		fmt.Sprintf("Period\t%s\t%s", p.From, p.To),
		fmt.Sprintf("Income\t%s", t.Income.StringFixed(2)),
		fmt.Sprintf("Expense\t%s", t.Expense.StringFixed(2)),
		fmt.Sprintf("Balance\t%s", t.Balance.StringFixed(2)),
	}
	for _, tx := range txs {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", tx.Date, tx.Type, tx.Category, tx.Amount.StringFixed(2)))
	}
	return p, lines
}

// reportExportPDF renders the summary rows as a one-table A4 document.
func (s *Server) reportExportPDF(w http.ResponseWriter, r *http.Request) {
	p, lines := s.summaryLines(r)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Finance report %s to %s", p.From, p.To), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Finance report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		for _, cell := range strings.Split(line, "\t") {
			pdf.Cell(45, 6, cell)
		}
		pdf.Ln(6)
	}

	var doc bytes.Buffer
	if err := pdf.Output(&doc); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeBlob(w, "application/pdf", fmt.Sprintf("report-%s-%s.pdf", p.From, p.To), doc.Bytes())
}

// reportExportExcel renders tab-separated rows, which spreadsheet apps open
// as a sheet.
func (s *Server) reportExportExcel(w http.ResponseWriter, r *http.Request) {
	p, lines := s.summaryLines(r)
	data := []byte(strings.Join(lines, "\n") + "\n")
	writeBlob(w, "application/vnd.ms-excel", fmt.Sprintf("report-%s-%s.xls", p.From, p.To), data)
}
