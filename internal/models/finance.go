package models

import "github.com/shopspring/decimal"

// TransactionType is the direction of a transaction.
type TransactionType string

// Transaction types. Categories share the same values.
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// CategoryType mirrors TransactionType for categories.
type CategoryType = TransactionType

// Transaction is a single ledger entry. Amount is a positive magnitude.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Category        string          `json:"category,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	Type            TransactionType `json:"type"`
	Tags            []string        `json:"tags,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
	IsRecurring     bool            `json:"isRecurring,omitempty"`
	RecurringPeriod string          `json:"recurringPeriod,omitempty"`
}

// SignedAmount returns the amount negated for expenses.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

// AccountType is one of the fixed account kinds.
type AccountType string

// Account types.
const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
	AccountCredit     AccountType = "credit"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountInvestment, AccountCash, AccountCredit:
		return true
	}
	return false
}

// Account holds a balance in one currency.
type Account struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	Type           AccountType      `json:"type"`
	Balance        decimal.Decimal  `json:"balance"`
	Currency       string           `json:"currency"`
	InitialBalance *decimal.Decimal `json:"initialBalance,omitempty"`
	CreatedAt      string           `json:"createdAt,omitempty"`
	UpdatedAt      string           `json:"updatedAt,omitempty"`
}

// Category classifies transactions.
type Category struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	Name             string           `json:"name"`
	Type             CategoryType     `json:"type"`
	Color            string           `json:"color"`
	Icon             string           `json:"icon"`
	ParentID         string           `json:"parentId,omitempty"`
	TransactionCount *int             `json:"transactionCount,omitempty"`
	TotalAmount      *decimal.Decimal `json:"totalAmount,omitempty"`
	CreatedAt        string           `json:"createdAt,omitempty"`
	UpdatedAt        string           `json:"updatedAt,omitempty"`
}

// TransactionSummary is the headline of a stats response.
type TransactionSummary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
	Count    int             `json:"count"`
}

// CategorySummary is one category row of a stats response.
type CategorySummary struct {
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Type         TransactionType `json:"type"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// AccountSummary is one account row of a stats response.
type AccountSummary struct {
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName"`
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
}

// TransactionStats is the adapted summary endpoint response.
type TransactionStats struct {
	Summary    TransactionSummary `json:"summary"`
	ByCategory []CategorySummary  `json:"byCategory"`
	ByAccount  []AccountSummary   `json:"byAccount"`
}

// AccountTypeStats groups accounts of one type.
type AccountTypeStats struct {
	Type         AccountType     `json:"type"`
	Count        int             `json:"count"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// AccountStats summarizes a user's accounts.
type AccountStats struct {
	TotalBalance  decimal.Decimal    `json:"totalBalance"`
	AccountsCount int                `json:"accountsCount"`
	ByType        []AccountTypeStats `json:"byType,omitempty"`
}

// CategoryStats summarizes usage of one category.
type CategoryStats struct {
	TransactionCount int              `json:"transactionCount"`
	TotalAmount      decimal.Decimal  `json:"totalAmount"`
	LastUsed         string           `json:"lastUsed,omitempty"`
	MonthlyAverage   *decimal.Decimal `json:"monthlyAverage,omitempty"`
}

// ImportResult reports a CSV import outcome.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}
