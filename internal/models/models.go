// Package models defines the domain entities exchanged with the FinAdm backend.
package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The backend sends and expects JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultCurrency is the currency assumed for new accounts.
const DefaultCurrency = "BRL"

// Role is a user's authorization level.
type Role string

// Roles.
const (
	RoleNormal Role = "normal"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleNormal || r == RoleAdmin
}

// UserStatus is an administrator-managed account state.
type UserStatus string

// User statuses.
const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is an identity and profile record.
type User struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone,omitempty"`
	Avatar        string           `json:"avatar,omitempty"`
	Role          Role             `json:"role"`
	Age           *int             `json:"age,omitempty"`
	Occupation    string           `json:"occupation,omitempty"`
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome,omitempty"`
	SpendingLimit *decimal.Decimal `json:"spendingLimit,omitempty"`
	CreatedAt     string           `json:"createdAt,omitempty"`
	UpdatedAt     string           `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AdminUser is a user as seen by administrators.
type AdminUser struct {
	User
	Status           UserStatus       `json:"status"`
	LastLogin        string           `json:"lastLogin,omitempty"`
	TransactionCount *int             `json:"transactionCount,omitempty"`
	TotalBalance     *decimal.Decimal `json:"totalBalance,omitempty"`
}

// Session is the credential pair plus the cached user.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// TokenPair is the result of a token refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// UserStats is the per-user profile summary.
type UserStats struct {
	MemberSince       string          `json:"memberSince"`
	MonthlyIncome     decimal.Decimal `json:"monthlyIncome"`
	ProfileCompletion int             `json:"profileCompletion"`
	TransactionCount  int             `json:"transactionCount"`
	CategoriesUsed    int             `json:"categoriesUsed"`
	AccountsCount     int             `json:"accountsCount"`
}
