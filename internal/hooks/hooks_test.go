package hooks_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/hooks"
	"gitlab.com/yelinaung/finadm/internal/mockapi"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
	"gitlab.com/yelinaung/finadm/internal/session"
)

const summaryRoute = "GET /api/transactions/user/{userId}/summary"

type stack struct {
	mock *mockapi.Server
	svc  *service.Services
}

func newStack(t *testing.T, email, password string) *stack {
	t.Helper()
	mock := mockapi.New(mockapi.Options{
		Now: func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
	})
	sess := session.NewManager(session.NewMemoryStore())
	client := apiclient.New(apiclient.Options{
		BaseURL:   "http://finadm.mock/api",
		Transport: mock.Transport(),
		Tokens:    sess,
	})
	st := &stack{mock: mock, svc: service.New(client, sess)}
	if email != "" {
		_, err := st.svc.Auth.Login(context.Background(), service.LoginCredentials{Email: email, Password: password})
		require.NoError(t, err)
		mock.ResetHits()
	}
	return st
}

func TestTransactionsWithoutSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, "", "")

	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{})
	require.NoError(t, h.Load(ctx))
	require.Equal(t, hooks.StatusIdle, h.Status())
	require.NoError(t, h.Err())
	require.Empty(t, h.Transactions())
	require.Equal(t, models.Pagination{Current: 1, Pages: 1, Total: 0, Limit: 20}, h.Pagination())
	require.Nil(t, h.Stats())
	require.Zero(t, st.mock.Hits("GET /api/transactions"))

	_, err := h.Create(ctx, service.CreateTransactionData{Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, apierr.ErrNotAuthenticated)
}

func TestTransactionsLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{})
	require.NoError(t, h.Load(ctx))
	require.Equal(t, hooks.StatusSuccess, h.Status())
	require.Len(t, h.Transactions(), 5)
	require.Equal(t, 5, h.Pagination().Total)

	s := h.Stats()
	require.NotNil(t, s)
	assert.True(t, decimal.NewFromInt(5000).Equal(s.Summary.Income))
	assert.True(t, decimal.RequireFromString("1558.4").Equal(s.Summary.Expenses))
	assert.Equal(t, 4, s.Summary.Count)

	require.Equal(t, 1, st.mock.Hits("GET /api/transactions"))
	require.Equal(t, 1, st.mock.Hits(summaryRoute))
}

func TestTransactionsAllUsersAggregatesLocally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.AdminEmail, mockapi.AdminPassword)

	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{Scope: service.AllUsers()})
	require.NoError(t, h.Load(ctx))
	require.Len(t, h.Transactions(), 7)
	require.Equal(t, 7, h.Stats().Summary.Count)
	require.True(t, decimal.NewFromInt(6200).Equal(h.Stats().Summary.Income))
	require.Zero(t, st.mock.Hits(summaryRoute))
}

func TestTransactionsMutationsRefetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{})
	require.NoError(t, h.Load(ctx))
	st.mock.ResetHits()

	tx, err := h.Create(ctx, service.CreateTransactionData{
		Category:    "Food",
		Amount:      decimal.RequireFromString("19.90"),
		Description: "Bakery",
		Type:        models.TypeExpense,
		Date:        "2026-03-14",
	})
	require.NoError(t, err)
	require.Equal(t, st.mock.UserID(mockapi.UserEmail), tx.UserID)
	require.Equal(t, 1, st.mock.Hits("POST /api/transactions"))
	require.Equal(t, 1, st.mock.Hits("GET /api/transactions"))
	require.Equal(t, 1, st.mock.Hits(summaryRoute))
	require.Len(t, h.Transactions(), 6)

	dup, err := h.Duplicate(ctx, tx.ID)
	require.NoError(t, err)
	require.NotEqual(t, tx.ID, dup.ID)
	require.Len(t, h.Transactions(), 7)

	require.NoError(t, h.Delete(ctx, dup.ID))
	require.Len(t, h.Transactions(), 6)
	require.Equal(t, 3, st.mock.Hits("GET /api/transactions"))
}

func TestTransactionsFailedMutationSkipsRefetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{})
	_, err := h.Create(ctx, service.CreateTransactionData{Category: "Food", Type: models.TypeExpense})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
	require.Zero(t, st.mock.Hits("GET /api/transactions"))
	require.Equal(t, hooks.StatusIdle, h.Status())
}

func TestTransactionsSetFilterAndExport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{})
	require.NoError(t, h.SetFilter(ctx, service.TransactionFilter{Type: "expense"}))
	require.Len(t, h.Transactions(), 4)
	require.Equal(t, "expense", h.Filter().Type)

	dir := t.TempDir()
	path, err := h.Export(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "transactions.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Groceries")
}

func TestTransactionsForbiddenScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	admin := st.mock.UserID(mockapi.AdminEmail)
	h := hooks.NewTransactions(st.svc.Transactions, st.svc.Auth, service.TransactionFilter{Scope: service.SpecificUser(admin)})
	err := h.Load(ctx)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, apierr.StatusOf(err))
	require.Equal(t, hooks.StatusError, h.Status())
	require.Equal(t, err, h.Err())
	require.Nil(t, h.Stats())
}

func TestAccounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewAccounts(st.svc.Accounts, st.svc.Auth, service.AccountFilter{})
	require.NoError(t, h.Load(ctx))
	require.Len(t, h.Accounts(), 2)
	require.True(t, decimal.NewFromInt(12500).Equal(h.TotalBalance()))
	require.NotNil(t, h.Stats())
	require.Equal(t, 1, st.mock.Hits("GET /api/accounts/stats"))
	require.Equal(t, 1, st.mock.Hits("GET /api/accounts/total-balance"))

	initial := decimal.NewFromInt(100)
	acc, err := h.Create(ctx, service.CreateAccountData{
		Name:           "Wallet",
		Type:           models.AccountCash,
		InitialBalance: &initial,
	})
	require.NoError(t, err)
	require.Len(t, h.Accounts(), 3)
	require.True(t, decimal.NewFromInt(12600).Equal(h.TotalBalance()))

	require.NoError(t, h.Delete(ctx, acc.ID))
	require.Len(t, h.Accounts(), 2)
}

type flakyAccounts struct {
	hooks.AccountAPI
	statsErr, totalErr error
}

func (f *flakyAccounts) List(context.Context, service.AccountFilter) ([]models.Account, error) {
	return []models.Account{{ID: "a1", Name: "Checking", Balance: decimal.NewFromInt(40)}}, nil
}

func (f *flakyAccounts) GetStats(context.Context) (*models.AccountStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &models.AccountStats{}, nil
}

func (f *flakyAccounts) GetTotalBalance(context.Context) (decimal.Decimal, error) {
	if f.totalErr != nil {
		return decimal.Zero, f.totalErr
	}
	return decimal.NewFromInt(40), nil
}

func TestAccountsAggregateFailuresKeepList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		api       *flakyAccounts
		wantStats bool
		wantTotal int64
	}{
		{"total balance down", &flakyAccounts{totalErr: errors.New("total-balance down")}, true, 0},
		{"stats down", &flakyAccounts{statsErr: errors.New("stats down")}, false, 40},
		{"both down", &flakyAccounts{statsErr: errors.New("x"), totalErr: errors.New("y")}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := hooks.NewAccounts(tt.api, staticUser{}, service.AccountFilter{})

			require.NoError(t, h.Load(context.Background()))
			require.Equal(t, hooks.StatusSuccess, h.Status())
			require.NoError(t, h.Err())
			require.Len(t, h.Accounts(), 1)
			require.Equal(t, tt.wantStats, h.Stats() != nil)
			require.True(t, decimal.NewFromInt(tt.wantTotal).Equal(h.TotalBalance()))
		})
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewCategories(st.svc.Categories, st.svc.Auth, service.CategoryFilter{})
	require.NoError(t, h.Load(ctx))
	cats := h.Categories()
	require.Len(t, cats, 6)

	require.NoError(t, h.SetFilter(ctx, service.CategoryFilter{Type: "income"}))
	require.Len(t, h.Categories(), 2)

	last := cats[len(cats)-1].ID
	require.NoError(t, h.SetFilter(ctx, service.CategoryFilter{}))
	require.NoError(t, h.Reorder(ctx, []string{last}))
	require.Equal(t, last, h.Categories()[0].ID)
}

func TestAdminUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.AdminEmail, mockapi.AdminPassword)

	h := hooks.NewAdminUsers(st.svc.Admin, st.svc.Auth, service.UserFilter{})
	require.NoError(t, h.Refresh(ctx))
	require.Len(t, h.Users(), 2)
	require.NotNil(t, h.SystemStats())
	require.Equal(t, 2, h.SystemStats().TotalUsers)

	u, err := h.Create(ctx, service.CreateUserData{
		Name:     "Joao",
		Email:    "joao@fin.local",
		Password: "secret1",
		Role:     models.RoleNormal,
	})
	require.NoError(t, err)
	require.Len(t, h.Users(), 3)
	require.Equal(t, 3, h.SystemStats().TotalUsers)

	st.mock.ResetHits()
	require.NoError(t, h.ResetPassword(ctx, u.ID, "another1"))
	require.Zero(t, st.mock.Hits("GET /api/users"))

	_, err = h.ToggleStatus(ctx, u.ID, models.StatusInactive)
	require.NoError(t, err)
	require.Equal(t, 1, st.mock.Hits("GET /api/users"))
	require.Equal(t, 1, st.mock.Hits("GET /api/admin/stats"))
}

func TestAdminUsersForbiddenForNormalUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewAdminUsers(st.svc.Admin, st.svc.Auth, service.UserFilter{})
	err := h.Refresh(ctx)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, apierr.StatusOf(err))
	require.Equal(t, hooks.StatusError, h.Status())
	require.Empty(t, h.Users())
	require.Nil(t, h.SystemStats())
}

func TestAdminUsersWithoutSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, "", "")

	h := hooks.NewAdminUsers(st.svc.Admin, st.svc.Auth, service.UserFilter{})
	require.NoError(t, h.Refresh(ctx))
	require.Equal(t, hooks.StatusIdle, h.Status())
	require.Empty(t, h.Users())
	require.Equal(t, 1, h.Pagination().Current)
	require.Nil(t, h.SystemStats())
	require.Zero(t, st.mock.Hits("GET /api/users"))
	require.Zero(t, st.mock.Hits("GET /api/admin/stats"))

	_, err := h.Create(ctx, service.CreateUserData{Name: "X", Email: "x@fin.local", Password: "secret1"})
	require.ErrorIs(t, err, apierr.ErrNotAuthenticated)
	require.Zero(t, st.mock.Hits("POST /api/users"))
}

func TestReports(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewReports(st.svc.Reports)
	months, err := h.GetMonthly(ctx, 3)
	require.NoError(t, err)
	require.Len(t, months, 3)
	require.Equal(t, hooks.StatusSuccess, h.Status())

	dir := t.TempDir()
	path, err := h.ExportPDF(ctx, service.ReportFilter{From: "2026-03-01", To: "2026-03-15"}, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "report-2026-03-01-2026-03-15.pdf"), path)

	anon := hooks.NewReports(newStack(t, "", "").svc.Reports)
	_, err = anon.GetSummary(ctx, service.ReportFilter{})
	require.Error(t, err)
	require.Equal(t, hooks.StatusError, anon.Status())
	require.Equal(t, err, anon.Err())
}

func TestSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStack(t, mockapi.UserEmail, mockapi.UserPassword)

	h := hooks.NewSettings(st.svc.Settings, st.svc.Auth)
	require.NoError(t, h.Load(ctx))
	require.Equal(t, "BRL", h.Settings().Currency)

	theme := models.ThemeDark
	s, err := h.Update(ctx, models.SettingsUpdate{Theme: &theme})
	require.NoError(t, err)
	require.Equal(t, models.ThemeDark, s.Theme)
	require.Equal(t, models.ThemeDark, h.Settings().Theme)

	st.mock.ResetHits()
	require.NoError(t, h.UpdateTheme(ctx, models.ThemeLight))
	require.Equal(t, 1, st.mock.Hits("GET /api/settings"))
	require.Equal(t, models.ThemeLight, h.Settings().Theme)

	require.NoError(t, h.DeleteAccount(ctx, mockapi.UserPassword))
	require.Nil(t, h.Settings())
	require.False(t, st.svc.Auth.IsAuthenticated(ctx))
}

type fakeSettings struct {
	service.SettingsService
	local *models.UserSettings
}

func (f *fakeSettings) GetSettings(context.Context) (*models.UserSettings, error) {
	return nil, errors.New("backend down")
}

func (f *fakeSettings) LocalSettings(context.Context) *models.UserSettings {
	return f.local
}

type staticUser struct{}

func (staticUser) CurrentUser(context.Context) (*models.User, error) {
	return &models.User{ID: "u1", Role: models.RoleNormal}, nil
}

func TestSettingsFallsBackToLocalCopy(t *testing.T) {
	t.Parallel()
	local := &models.UserSettings{Theme: models.ThemeDark, Currency: "USD"}
	h := hooks.NewSettings(&fakeSettings{local: local}, staticUser{})

	err := h.Load(context.Background())
	require.EqualError(t, err, "backend down")
	require.Equal(t, hooks.StatusError, h.Status())
	require.Equal(t, local, h.Settings())
}
