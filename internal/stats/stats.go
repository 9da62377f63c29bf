// Package stats reduces transaction lists into the summary shown next to
// a listing.
package stats

import (
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// Group totals one (category, type) pair.
type Group struct {
	Category string                 `json:"category"`
	Type     models.TransactionType `json:"type"`
	Total    decimal.Decimal        `json:"total"`
	Count    int                    `json:"count"`
}

// Result is a summary plus its per-category breakdown. Expenses is a
// positive magnitude.
type Result struct {
	Summary models.TransactionSummary `json:"summary"`
	Groups  []Group                   `json:"categories"`
}

type groupKey struct {
	category string
	txType   models.TransactionType
}

// Aggregate sums a transaction list. Groups keep first-seen order.
func Aggregate(txs []models.Transaction) Result {
	res := Result{Groups: []Group{}}
	index := make(map[groupKey]int)

	for _, tx := range txs {
		switch tx.Type {
		case models.TypeIncome:
			res.Summary.Income = res.Summary.Income.Add(tx.Amount)
		case models.TypeExpense:
			res.Summary.Expenses = res.Summary.Expenses.Add(tx.Amount.Abs())
		}

		key := groupKey{category: tx.Category, txType: tx.Type}
		i, ok := index[key]
		if !ok {
			i = len(res.Groups)
			index[key] = i
			res.Groups = append(res.Groups, Group{Category: tx.Category, Type: tx.Type})
		}
		res.Groups[i].Total = res.Groups[i].Total.Add(tx.Amount.Abs())
		res.Groups[i].Count++
	}

	res.Summary.Balance = res.Summary.Income.Sub(res.Summary.Expenses)
	res.Summary.Count = len(txs)
	return res
}

// FromServer reshapes the summary endpoint's response into a Result.
func FromServer(s models.TransactionStats) Result {
	res := Result{Summary: s.Summary, Groups: make([]Group, 0, len(s.ByCategory))}
	res.Summary.Expenses = res.Summary.Expenses.Abs()

	for _, c := range s.ByCategory {
		category := c.CategoryID
		if category == "" {
			category = c.CategoryName
		}
		res.Groups = append(res.Groups, Group{
			Category: category,
			Type:     c.Type,
			Total:    c.Total,
			Count:    c.Count,
		})
	}
	return res
}
