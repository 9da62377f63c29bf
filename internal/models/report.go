package models

import "github.com/shopspring/decimal"

// ReportGroupBy selects the report grouping dimension.
type ReportGroupBy string

// Report groupings.
const (
	GroupByCategory ReportGroupBy = "category"
	GroupByAccount  ReportGroupBy = "account"
	GroupByDay      ReportGroupBy = "day"
	GroupByWeek     ReportGroupBy = "week"
	GroupByMonth    ReportGroupBy = "month"
)

// Period is an inclusive date range.
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ReportTotals sums a report.
type ReportTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
	Count   int             `json:"count"`
}

// ReportSummaryItem is one group of a summary report.
type ReportSummaryItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	ReportTotals
}

// ReportSummary is a grouped summary over a period.
type ReportSummary struct {
	GroupBy ReportGroupBy       `json:"groupBy"`
	Period  Period              `json:"period"`
	Items   []ReportSummaryItem `json:"items"`
	Totals  ReportTotals        `json:"totals"`
}

// CashFlow is one day of cash flow.
type CashFlow struct {
	Date              string          `json:"date"`
	Income            decimal.Decimal `json:"income"`
	Expense           decimal.Decimal `json:"expense"`
	Balance           decimal.Decimal `json:"balance"`
	CumulativeBalance decimal.Decimal `json:"cumulativeBalance"`
}

// CashFlowSummary sums a cash flow report.
type CashFlowSummary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetBalance   decimal.Decimal `json:"netBalance"`
	AverageDaily decimal.Decimal `json:"averageDaily"`
}

// CashFlowReport is the daily cash flow over a period.
type CashFlowReport struct {
	Period  Period          `json:"period"`
	Data    []CashFlow      `json:"data"`
	Summary CashFlowSummary `json:"summary"`
}

// FlowTotals is a total, count and average for one direction.
type FlowTotals struct {
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

// IncomeExpenseReport compares income and expense over a period.
type IncomeExpenseReport struct {
	Period      Period          `json:"period"`
	Income      FlowTotals      `json:"income"`
	Expense     FlowTotals      `json:"expense"`
	Balance     decimal.Decimal `json:"balance"`
	SavingsRate decimal.Decimal `json:"savingsRate"`
}

// CategoryReport is one category's share of a period.
type CategoryReport struct {
	CategoryID    string          `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	Type          TransactionType `json:"type"`
	Total         decimal.Decimal `json:"total"`
	Count         int             `json:"count"`
	Percentage    decimal.Decimal `json:"percentage"`
	Trend         string          `json:"trend"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// MonthlyReport is one month's totals.
type MonthlyReport struct {
	Month       string          `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Balance     decimal.Decimal `json:"balance"`
	SavingsRate decimal.Decimal `json:"savingsRate"`
}

// PeriodComparison compares two income/expense reports.
type PeriodComparison struct {
	Period1    IncomeExpenseReport `json:"period1"`
	Period2    IncomeExpenseReport `json:"period2"`
	Comparison struct {
		IncomeChange  decimal.Decimal `json:"incomeChange"`
		ExpenseChange decimal.Decimal `json:"expenseChange"`
		BalanceChange decimal.Decimal `json:"balanceChange"`
	} `json:"comparison"`
}
