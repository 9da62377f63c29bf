package service

import (
	"context"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// CreateAccountData is a new account. Currency defaults to BRL.
type CreateAccountData struct {
	Name           string             `json:"name"`
	Type           models.AccountType `json:"type"`
	Currency       string             `json:"currency,omitempty"`
	InitialBalance *decimal.Decimal   `json:"initialBalance,omitempty"`
}

// UpdateAccountData is a partial edit. Nil fields are left untouched.
type UpdateAccountData struct {
	Name     *string             `json:"name,omitempty"`
	Type     *models.AccountType `json:"type,omitempty"`
	Currency *string             `json:"currency,omitempty"`
}

// AccountService covers the account endpoints.
type AccountService struct {
	api API
}

// NewAccountService creates an AccountService.
func NewAccountService(api API) *AccountService {
	return &AccountService{api: api}
}

// List returns the user's accounts.
func (s *AccountService) List(ctx context.Context, f AccountFilter) ([]models.Account, error) {
	resp, err := s.api.Get(ctx, "/accounts", f.Values())
	if err != nil {
		return nil, err
	}
	return list[models.Account](resp, "data", "accounts")
}

// GetByID fetches one account.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	resp, err := s.api.Get(ctx, "/accounts/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return entity[models.Account](resp, "account")
}

// Create opens an account.
func (s *AccountService) Create(ctx context.Context, data CreateAccountData) (*models.Account, error) {
	if data.Currency == "" {
		data.Currency = models.DefaultCurrency
	}
	resp, err := s.api.Post(ctx, "/accounts", data)
	if err != nil {
		return nil, err
	}
	return entity[models.Account](resp, "account")
}

// Update edits an account.
func (s *AccountService) Update(ctx context.Context, id string, data UpdateAccountData) (*models.Account, error) {
	resp, err := s.api.Put(ctx, "/accounts/"+escape(id), data)
	if err != nil {
		return nil, err
	}
	return entity[models.Account](resp, "account")
}

// Delete closes an account.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, "/accounts/"+escape(id))
	return err
}

// GetStats summarizes the user's accounts.
func (s *AccountService) GetStats(ctx context.Context) (*models.AccountStats, error) {
	resp, err := s.api.Get(ctx, "/accounts/stats", nil)
	if err != nil {
		return nil, err
	}
	return entity[models.AccountStats](resp, "stats")
}

// GetTotalBalance sums every account balance.
func (s *AccountService) GetTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	resp, err := s.api.Get(ctx, "/accounts/total-balance", nil)
	if err != nil {
		return decimal.Zero, err
	}
	m, err := object(resp)
	if err != nil {
		return decimal.Zero, err
	}
	return num(envelope(m)["totalBalance"]), nil
}
