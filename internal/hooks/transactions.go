package hooks

import (
	"cmp"
	"context"
	"slices"
	"time"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/export"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
	"gitlab.com/yelinaung/finadm/internal/stats"
)

// TransactionAPI is the part of service.TransactionService the hook uses.
type TransactionAPI interface {
	List(ctx context.Context, f service.TransactionFilter) (*service.TransactionList, error)
	Create(ctx context.Context, data service.CreateTransactionData) (*models.Transaction, error)
	Update(ctx context.Context, id string, data service.UpdateTransactionData) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*models.Transaction, error)
	GetStats(ctx context.Context, userID string, r service.StatsRange) (*models.TransactionStats, error)
	ExportCSV(ctx context.Context, f service.TransactionFilter) (*apiclient.Blob, error)
}

// Transactions holds one filtered page of transactions and its stats.
type Transactions struct {
	state
	api   TransactionAPI
	users UserSource

	filter       service.TransactionFilter
	transactions []models.Transaction
	pagination   models.Pagination
	stats        *stats.Result
}

// NewTransactions creates the hook. Nothing is fetched until Load.
func NewTransactions(api TransactionAPI, users UserSource, filter service.TransactionFilter) *Transactions {
	return &Transactions{
		api:          api,
		users:        users,
		filter:       filter,
		transactions: []models.Transaction{},
		pagination:   defaultPagination,
	}
}

// Transactions returns the loaded page.
func (h *Transactions) Transactions() []models.Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.transactions)
}

// Pagination returns the pagination of the loaded page.
func (h *Transactions) Pagination() models.Pagination {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pagination
}

// Stats returns the summary of the current scope, or nil when unavailable.
func (h *Transactions) Stats() *stats.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Filter returns the active filter.
func (h *Transactions) Filter() service.TransactionFilter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filter
}

// Load fetches the list, then the stats. Only a list failure is returned.
func (h *Transactions) Load(ctx context.Context) error {
	err := h.loadList(ctx)
	h.LoadStats(ctx, "", "")
	return err
}

// Refresh reloads list and stats.
func (h *Transactions) Refresh(ctx context.Context) error {
	return h.Load(ctx)
}

// SetFilter replaces the filter and reloads.
func (h *Transactions) SetFilter(ctx context.Context, f service.TransactionFilter) error {
	h.mu.Lock()
	h.filter = f
	h.mu.Unlock()
	return h.Load(ctx)
}

func (h *Transactions) loadList(ctx context.Context) error {
	user := sessionUser(ctx, h.users)
	if user == nil {
		h.mu.Lock()
		h.idleLocked()
		h.transactions = []models.Transaction{}
		h.pagination = defaultPagination
		h.mu.Unlock()
		return nil
	}

	h.begin()
	f := h.Filter()
	if f.Scope.Kind() == service.ScopeCurrentUser {
		f.Scope = service.SpecificUser(user.ID)
	}

	list, err := h.api.List(ctx, f)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		logger.Log.Error().Err(err).Str("scope", f.Scope.Kind().String()).Msg("Failed to load transactions")
		h.failLocked(err)
		return err
	}
	h.transactions = list.Transactions
	h.pagination = list.Pagination
	h.succeedLocked()
	return nil
}

// LoadStats refreshes the summary. Empty from/to fall back to the filter's
// dates. The all-users scope is summed from the loaded page because the
// summary endpoint needs a concrete user. Failures clear the stats and are
// only logged.
func (h *Transactions) LoadStats(ctx context.Context, from, to string) {
	user := sessionUser(ctx, h.users)
	if user == nil {
		h.setStats(nil)
		return
	}

	h.mu.Lock()
	f := h.filter
	loaded := slices.Clone(h.transactions)
	h.mu.Unlock()

	if f.Scope.Kind() == service.ScopeAllUsers {
		res := stats.Aggregate(loaded)
		h.setStats(&res)
		return
	}

	userID := cmp.Or(f.Scope.UserID(), user.ID)
	if from == "" && to == "" {
		from = cmp.Or(f.From, f.StartDate)
		to = cmp.Or(f.To, f.EndDate)
	}

	server, err := h.api.GetStats(ctx, userID, service.StatsRange{From: from, To: to})
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load transaction stats")
		h.setStats(nil)
		return
	}
	res := stats.FromServer(*server)
	h.setStats(&res)
}

func (h *Transactions) setStats(res *stats.Result) {
	h.mu.Lock()
	h.stats = res
	h.mu.Unlock()
}

// Create records a transaction for the logged-in user unless data names
// another owner, then refetches.
func (h *Transactions) Create(ctx context.Context, data service.CreateTransactionData) (*models.Transaction, error) {
	user := sessionUser(ctx, h.users)
	if user == nil {
		return nil, apierr.ErrNotAuthenticated
	}
	if data.UserID == "" {
		data.UserID = user.ID
	}

	tx, err := h.api.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	h.refetch(ctx)
	return tx, nil
}

// Update edits a transaction, then refetches.
func (h *Transactions) Update(ctx context.Context, id string, data service.UpdateTransactionData) (*models.Transaction, error) {
	tx, err := h.api.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	h.refetch(ctx)
	return tx, nil
}

// Delete removes a transaction, then refetches.
func (h *Transactions) Delete(ctx context.Context, id string) error {
	if err := h.api.Delete(ctx, id); err != nil {
		return err
	}
	h.refetch(ctx)
	return nil
}

// Duplicate copies a transaction, then refetches.
func (h *Transactions) Duplicate(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := h.api.Duplicate(ctx, id)
	if err != nil {
		return nil, err
	}
	h.refetch(ctx)
	return tx, nil
}

// Export downloads the filtered transactions as CSV into path and returns
// the file written.
func (h *Transactions) Export(ctx context.Context, path string) (string, error) {
	blob, err := h.api.ExportCSV(ctx, h.Filter())
	if err != nil {
		return "", err
	}
	return export.WriteBlob(path, export.Filename("transactions", "", "csv", time.Now()), blob)
}

// refetch reloads after a successful write. A failed reload lands in the
// hook's status, not in the write's result.
func (h *Transactions) refetch(ctx context.Context) {
	_ = h.Load(ctx)
}
