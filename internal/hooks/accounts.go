package hooks

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
)

// AccountAPI is the part of service.AccountService the hook uses.
type AccountAPI interface {
	List(ctx context.Context, f service.AccountFilter) ([]models.Account, error)
	Create(ctx context.Context, data service.CreateAccountData) (*models.Account, error)
	Update(ctx context.Context, id string, data service.UpdateAccountData) (*models.Account, error)
	Delete(ctx context.Context, id string) error
	GetStats(ctx context.Context) (*models.AccountStats, error)
	GetTotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// Accounts holds the account list, its stats and the total balance.
type Accounts struct {
	state
	api   AccountAPI
	users UserSource

	filter       service.AccountFilter
	accounts     []models.Account
	stats        *models.AccountStats
	totalBalance decimal.Decimal
}

// NewAccounts creates the hook.
func NewAccounts(api AccountAPI, users UserSource, filter service.AccountFilter) *Accounts {
	return &Accounts{api: api, users: users, filter: filter, accounts: []models.Account{}}
}

// Accounts returns a copy of the loaded accounts.
func (h *Accounts) Accounts() []models.Account {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.accounts)
}

// Stats returns the last loaded account stats, or nil if they did not load.
func (h *Accounts) Stats() *models.AccountStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// TotalBalance returns the last loaded total across accounts.
func (h *Accounts) TotalBalance() decimal.Decimal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalBalance
}

// Load fetches the list, then stats and total balance side by side.
// Only a list failure counts; stats and balance failures are logged and
// reset that value.
func (h *Accounts) Load(ctx context.Context) error {
	if sessionUser(ctx, h.users) == nil {
		h.mu.Lock()
		h.idleLocked()
		h.accounts = []models.Account{}
		h.stats = nil
		h.totalBalance = decimal.Zero
		h.mu.Unlock()
		return nil
	}

	h.begin()
	h.mu.Lock()
	f := h.filter
	h.mu.Unlock()

	accounts, err := h.api.List(ctx, f)
	if err != nil {
		return h.fail(err)
	}

	var (
		accStats *models.AccountStats
		total    decimal.Decimal
	)
	var g errgroup.Group
	g.Go(func() error {
		s, err := h.api.GetStats(ctx)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to load account stats")
			return nil
		}
		accStats = s
		return nil
	})
	g.Go(func() error {
		t, err := h.api.GetTotalBalance(ctx)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to load total balance")
			return nil
		}
		total = t
		return nil
	})
	_ = g.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.accounts = accounts
	h.stats = accStats
	h.totalBalance = total
	h.succeedLocked()
	return nil
}

func (h *Accounts) fail(err error) error {
	logger.Log.Error().Err(err).Msg("Failed to load accounts")
	h.mu.Lock()
	h.failLocked(err)
	h.mu.Unlock()
	return err
}

// Refresh is Load.
func (h *Accounts) Refresh(ctx context.Context) error {
	return h.Load(ctx)
}

// SetFilter replaces the filter and reloads.
func (h *Accounts) SetFilter(ctx context.Context, f service.AccountFilter) error {
	h.mu.Lock()
	h.filter = f
	h.mu.Unlock()
	return h.Load(ctx)
}

// Create adds an account, then refetches.
func (h *Accounts) Create(ctx context.Context, data service.CreateAccountData) (*models.Account, error) {
	if sessionUser(ctx, h.users) == nil {
		return nil, apierr.ErrNotAuthenticated
	}
	acc, err := h.api.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	_ = h.Load(ctx)
	return acc, nil
}

// Update edits an account, then refetches.
func (h *Accounts) Update(ctx context.Context, id string, data service.UpdateAccountData) (*models.Account, error) {
	acc, err := h.api.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	_ = h.Load(ctx)
	return acc, nil
}

// Delete removes an account, then refetches.
func (h *Accounts) Delete(ctx context.Context, id string) error {
	if err := h.api.Delete(ctx, id); err != nil {
		return err
	}
	_ = h.Load(ctx)
	return nil
}
