// Package service wraps the FinAdm REST endpoints in typed operations.
// Services are stateless apart from the session they are given; they never
// retry or swallow errors.
package service

import (
	"context"
	"net/url"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/session"
)

// API is the request pipeline the services run on.
type API interface {
	Get(ctx context.Context, path string, query url.Values) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Put(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Delete(ctx context.Context, path string) (*apiclient.Response, error)
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
	GetBlob(ctx context.Context, path string, query url.Values) (*apiclient.Blob, error)
}

// Services bundles every domain service.
type Services struct {
	Auth         *AuthService
	Admin        *AdminService
	Transactions *TransactionService
	Accounts     *AccountService
	Categories   *CategoryService
	Reports      *ReportService
	Settings     *SettingsService
}

// New wires all services to one API and session.
func New(api API, sess *session.Manager) *Services {
	return &Services{
		Auth:         NewAuthService(api, sess),
		Admin:        NewAdminService(api),
		Transactions: NewTransactionService(api),
		Accounts:     NewAccountService(api),
		Categories:   NewCategoryService(api),
		Reports:      NewReportService(api),
		Settings:     NewSettingsService(api, sess),
	}
}

// UserList is one page of the admin user listing.
type UserList struct {
	Users      []models.AdminUser `json:"users"`
	Pagination models.Pagination  `json:"pagination"`
}

// TransactionList is one page of transactions.
type TransactionList struct {
	Transactions []models.Transaction `json:"transactions"`
	Pagination   models.Pagination    `json:"pagination"`
}

// entity unwraps the named entity of a response into T.
func entity[T any](resp *apiclient.Response, name string) (*T, error) {
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	var out T
	if err := remarshal(unwrapEntity(m, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// list decodes the first present key of a response into []T.
func list[T any](resp *apiclient.Response, keys ...string) ([]T, error) {
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			var out []T
			if err := remarshal(v, &out); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return []T{}, nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
