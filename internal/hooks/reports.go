package hooks

import (
	"context"
	"time"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/export"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
)

// ReportAPI is the part of service.ReportService the hook uses.
type ReportAPI interface {
	GetSummary(ctx context.Context, f service.ReportFilter) (*models.ReportSummary, error)
	GetCashFlow(ctx context.Context, from, to, accountID string) (*models.CashFlowReport, error)
	GetMonthly(ctx context.Context, months int) ([]models.MonthlyReport, error)
	ExportPDF(ctx context.Context, f service.ReportFilter) (*apiclient.Blob, error)
	ExportExcel(ctx context.Context, f service.ReportFilter) (*apiclient.Blob, error)
}

// Reports tracks status only. Results go straight back to the caller.
type Reports struct {
	state
	api ReportAPI
}

// NewReports creates the hook.
func NewReports(api ReportAPI) *Reports {
	return &Reports{api: api}
}

// track runs fn under the hook's status and returns fn's error unchanged.
func track[T any](h *Reports, fn func() (T, error)) (T, error) {
	h.begin()
	v, err := fn()
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.failLocked(err)
		return v, err
	}
	h.succeedLocked()
	return v, nil
}

func (h *Reports) GetSummary(ctx context.Context, f service.ReportFilter) (*models.ReportSummary, error) {
	return track(h, func() (*models.ReportSummary, error) { return h.api.GetSummary(ctx, f) })
}

func (h *Reports) GetCashFlow(ctx context.Context, from, to, accountID string) (*models.CashFlowReport, error) {
	return track(h, func() (*models.CashFlowReport, error) { return h.api.GetCashFlow(ctx, from, to, accountID) })
}

func (h *Reports) GetMonthly(ctx context.Context, months int) ([]models.MonthlyReport, error) {
	return track(h, func() ([]models.MonthlyReport, error) { return h.api.GetMonthly(ctx, months) })
}

// ExportPDF downloads the report as PDF into path.
func (h *Reports) ExportPDF(ctx context.Context, f service.ReportFilter, path string) (string, error) {
	return track(h, func() (string, error) {
		blob, err := h.api.ExportPDF(ctx, f)
		if err != nil {
			return "", err
		}
		return export.WriteBlob(path, export.Filename("report", "", "pdf", time.Now()), blob)
	})
}

// ExportExcel downloads the report as a spreadsheet into path.
func (h *Reports) ExportExcel(ctx context.Context, f service.ReportFilter, path string) (string, error) {
	return track(h, func() (string, error) {
		blob, err := h.api.ExportExcel(ctx, f)
		if err != nil {
			return "", err
		}
		return export.WriteBlob(path, export.Filename("report", "", "xls", time.Now()), blob)
	})
}
