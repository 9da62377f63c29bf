package service

import (
	"context"
	"net/url"
	"strconv"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// DefaultReportMonths is how far back the monthly report reaches.
const DefaultReportMonths = 12

// ReportService covers the report endpoints.
type ReportService struct {
	api API
}

// NewReportService creates a ReportService.
func NewReportService(api API) *ReportService {
	return &ReportService{api: api}
}

// GetSummary returns grouped totals for a period.
func (s *ReportService) GetSummary(ctx context.Context, f ReportFilter) (*models.ReportSummary, error) {
	resp, err := s.api.Get(ctx, "/reports/summary", f.Values())
	if err != nil {
		return nil, err
	}
	return entity[models.ReportSummary](resp, "report")
}

// GetCashFlow returns the daily cash flow of a period.
func (s *ReportService) GetCashFlow(ctx context.Context, from, to, accountID string) (*models.CashFlowReport, error) {
	f := ReportFilter{From: from, To: to, AccountID: accountID}
	resp, err := s.api.Get(ctx, "/reports/cashflow", f.Values())
	if err != nil {
		return nil, err
	}
	return entity[models.CashFlowReport](resp, "report")
}

// GetIncomeExpense compares income and expense over a period.
func (s *ReportService) GetIncomeExpense(ctx context.Context, from, to string) (*models.IncomeExpenseReport, error) {
	f := ReportFilter{From: from, To: to}
	resp, err := s.api.Get(ctx, "/reports/income-expense", f.Values())
	if err != nil {
		return nil, err
	}
	return entity[models.IncomeExpenseReport](resp, "report")
}

// GetByCategory breaks a period down by category. An empty type covers both.
func (s *ReportService) GetByCategory(ctx context.Context, from, to, txType string) ([]models.CategoryReport, error) {
	q := ReportFilter{From: from, To: to}.Values()
	addParam(q, "type", txType)

	resp, err := s.api.Get(ctx, "/reports/by-category", q)
	if err != nil {
		return nil, err
	}
	return list[models.CategoryReport](resp, "categories", "data")
}

// GetMonthly returns the last n months. n <= 0 means 12.
func (s *ReportService) GetMonthly(ctx context.Context, months int) ([]models.MonthlyReport, error) {
	if months <= 0 {
		months = DefaultReportMonths
	}
	q := url.Values{}
	q.Set("months", strconv.Itoa(months))

	resp, err := s.api.Get(ctx, "/reports/monthly", q)
	if err != nil {
		return nil, err
	}
	return list[models.MonthlyReport](resp, "months", "data")
}

// ComparePeriods compares income and expense between two periods.
func (s *ReportService) ComparePeriods(ctx context.Context, p1, p2 models.Period) (*models.PeriodComparison, error) {
	q := url.Values{}
	addParam(q, "period1From", p1.From)
	addParam(q, "period1To", p1.To)
	addParam(q, "period2From", p2.From)
	addParam(q, "period2To", p2.To)

	resp, err := s.api.Get(ctx, "/reports/compare", q)
	if err != nil {
		return nil, err
	}
	var out models.PeriodComparison
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportPDF downloads a summary report as PDF.
func (s *ReportService) ExportPDF(ctx context.Context, f ReportFilter) (*apiclient.Blob, error) {
	f.CategoryID = ""
	return s.api.GetBlob(ctx, "/reports/export/pdf", f.Values())
}

// ExportExcel downloads a summary report as a spreadsheet.
func (s *ReportService) ExportExcel(ctx context.Context, f ReportFilter) (*apiclient.Blob, error) {
	f.AccountID, f.CategoryID = "", ""
	return s.api.GetBlob(ctx, "/reports/export/excel", f.Values())
}
