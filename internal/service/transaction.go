package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// CreateTransactionData is a new transaction. Amount is a positive magnitude.
type CreateTransactionData struct {
	UserID          string                 `json:"userId,omitempty"`
	Category        string                 `json:"category"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     string                 `json:"description"`
	Type            models.TransactionType `json:"type"`
	Date            string                 `json:"date,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
	IsRecurring     bool                   `json:"isRecurring,omitempty"`
	RecurringPeriod string                 `json:"recurringPeriod,omitempty"`
}

// UpdateTransactionData is a partial edit. Nil fields are left untouched.
type UpdateTransactionData struct {
	Category    *string                 `json:"category,omitempty"`
	Amount      *decimal.Decimal        `json:"amount,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Type        *models.TransactionType `json:"type,omitempty"`
	Date        *string                 `json:"date,omitempty"`
	Tags        []string                `json:"tags,omitempty"`
}

// StatsRange is the window a stats request covers.
type StatsRange struct {
	From string
	To   string
}

// TransactionService covers the ledger endpoints.
type TransactionService struct {
	api API
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(api API) *TransactionService {
	return &TransactionService{api: api}
}

// List returns one page of transactions.
func (s *TransactionService) List(ctx context.Context, f TransactionFilter) (*TransactionList, error) {
	resp, err := s.api.Get(ctx, "/transactions", f.Values())
	if err != nil {
		return nil, err
	}
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	list, err := adaptTransactionList(m)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetByID fetches one transaction.
func (s *TransactionService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	resp, err := s.api.Get(ctx, "/transactions/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return transaction(resp)
}

// Create records a transaction.
func (s *TransactionService) Create(ctx context.Context, data CreateTransactionData) (*models.Transaction, error) {
	resp, err := s.api.Post(ctx, "/transactions", data)
	if err != nil {
		return nil, err
	}
	return transaction(resp)
}

// Update edits a transaction.
func (s *TransactionService) Update(ctx context.Context, id string, data UpdateTransactionData) (*models.Transaction, error) {
	resp, err := s.api.Put(ctx, "/transactions/"+escape(id), data)
	if err != nil {
		return nil, err
	}
	return transaction(resp)
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, "/transactions/"+escape(id))
	return err
}

// GetStats fetches a user's summary for the period nearest the range.
func (s *TransactionService) GetStats(ctx context.Context, userID string, r StatsRange) (*models.TransactionStats, error) {
	if userID == "" {
		return nil, apierr.ErrUserIDRequired
	}

	q := url.Values{}
	q.Set("period", StatsPeriod(r.From, r.To))

	resp, err := s.api.Get(ctx, "/transactions/user/"+escape(userID)+"/summary", q)
	if err != nil {
		return nil, err
	}
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	stats := adaptTransactionStats(m)
	return &stats, nil
}

// BulkImport creates many transactions in one call.
func (s *TransactionService) BulkImport(ctx context.Context, items []CreateTransactionData) ([]models.Transaction, error) {
	resp, err := s.api.Post(ctx, "/transactions/bulk", map[string][]CreateTransactionData{"transactions": items})
	if err != nil {
		return nil, err
	}
	return list[models.Transaction](resp, "transactions", "data")
}

// ImportCSV uploads a CSV file as multipart form data.
func (s *TransactionService) ImportCSV(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	resp, err := s.api.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/transactions/import",
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return entity[models.ImportResult](resp, "result")
}

// ExportCSV downloads transactions as CSV.
func (s *TransactionService) ExportCSV(ctx context.Context, f TransactionFilter) (*apiclient.Blob, error) {
	return s.api.GetBlob(ctx, "/transactions/export", f.ExportValues())
}

// Duplicate copies a transaction.
func (s *TransactionService) Duplicate(ctx context.Context, id string) (*models.Transaction, error) {
	resp, err := s.api.Post(ctx, "/transactions/"+escape(id)+"/duplicate", nil)
	if err != nil {
		return nil, err
	}
	return transaction(resp)
}

func transaction(resp *apiclient.Response) (*models.Transaction, error) {
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	tx, err := adaptTransaction(unwrapEntity(m, "transaction"))
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
