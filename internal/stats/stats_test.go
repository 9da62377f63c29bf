package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/yelinaung/finadm/internal/models"
)

func tx(category string, typ models.TransactionType, amount string) models.Transaction {
	return models.Transaction{Category: category, Type: typ, Amount: decimal.RequireFromString(amount)}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()
		res := Aggregate(nil)
		require.True(t, res.Summary.Income.IsZero())
		require.True(t, res.Summary.Balance.IsZero())
		require.Equal(t, 0, res.Summary.Count)
		require.NotNil(t, res.Groups)
		require.Empty(t, res.Groups)
	})

	t.Run("groups by category and type in first-seen order", func(t *testing.T) {
		t.Parallel()
		res := Aggregate([]models.Transaction{
			tx("Salary", models.TypeIncome, "5000"),
			tx("Food", models.TypeExpense, "-45.50"),
			tx("Food", models.TypeExpense, "30"),
			tx("Food", models.TypeIncome, "10"),
			tx("Rent", models.TypeExpense, "1500"),
		})

		require.True(t, decimal.RequireFromString("5010").Equal(res.Summary.Income))
		require.True(t, decimal.RequireFromString("1575.50").Equal(res.Summary.Expenses))
		require.True(t, decimal.RequireFromString("3434.50").Equal(res.Summary.Balance))
		require.Equal(t, 5, res.Summary.Count)

		require.Len(t, res.Groups, 4)
		require.Equal(t, "Salary", res.Groups[0].Category)
		require.Equal(t, "Food", res.Groups[1].Category)
		require.Equal(t, models.TypeExpense, res.Groups[1].Type)
		require.Equal(t, 2, res.Groups[1].Count)
		require.True(t, decimal.RequireFromString("75.50").Equal(res.Groups[1].Total))
		require.Equal(t, models.TypeIncome, res.Groups[2].Type)
		require.Equal(t, "Rent", res.Groups[3].Category)
	})

	t.Run("underscores in category names stay distinct", func(t *testing.T) {
		t.Parallel()
		res := Aggregate([]models.Transaction{
			tx("home_office", models.TypeExpense, "10"),
			tx("home", models.TypeExpense, "20"),
		})
		require.Len(t, res.Groups, 2)
	})
}

func TestAggregateMatchesManualSums(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		txs := make([]models.Transaction, n)
		for i := range txs {
			cents := rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "cents")
			txs[i] = models.Transaction{
				Category: rapid.SampledFrom([]string{"Food", "Rent", "Salary", "Fun"}).Draw(t, "category"),
				Type:     rapid.SampledFrom([]models.TransactionType{models.TypeIncome, models.TypeExpense}).Draw(t, "type"),
				Amount:   decimal.New(cents, -2),
			}
		}

		res := Aggregate(txs)

		income, expenses := decimal.Zero, decimal.Zero
		totals := map[groupKey]decimal.Decimal{}
		counts := map[groupKey]int{}
		for _, tx := range txs {
			if tx.Type == models.TypeIncome {
				income = income.Add(tx.Amount)
			} else {
				expenses = expenses.Add(tx.Amount.Abs())
			}
			k := groupKey{tx.Category, tx.Type}
			totals[k] = totals[k].Add(tx.Amount.Abs())
			counts[k]++
		}

		if !res.Summary.Income.Equal(income) || !res.Summary.Expenses.Equal(expenses) {
			t.Fatalf("summary mismatch: %+v", res.Summary)
		}
		if !res.Summary.Balance.Equal(income.Sub(expenses)) || res.Summary.Count != n {
			t.Fatalf("balance/count mismatch: %+v", res.Summary)
		}
		if len(res.Groups) != len(totals) {
			t.Fatalf("want %d groups, got %d", len(totals), len(res.Groups))
		}
		for _, g := range res.Groups {
			k := groupKey{g.Category, g.Type}
			if !g.Total.Equal(totals[k]) || g.Count != counts[k] {
				t.Fatalf("group %v: got %s/%d want %s/%d", k, g.Total, g.Count, totals[k], counts[k])
			}
		}
	})
}

func TestFromServer(t *testing.T) {
	t.Parallel()

	res := FromServer(models.TransactionStats{
		Summary: models.TransactionSummary{Income: decimal.NewFromInt(100), Expenses: decimal.NewFromInt(-40), Count: 3},
		ByCategory: []models.CategorySummary{
			{CategoryID: "c1", CategoryName: "Food", Type: models.TypeExpense, Total: decimal.NewFromInt(40), Count: 2},
			{CategoryName: "Misc", Type: models.TypeIncome, Total: decimal.NewFromInt(100), Count: 1},
		},
	})

	require.True(t, decimal.NewFromInt(40).Equal(res.Summary.Expenses))
	require.Equal(t, 3, res.Summary.Count)
	require.Len(t, res.Groups, 2)
	require.Equal(t, "c1", res.Groups[0].Category)
	require.Equal(t, "Misc", res.Groups[1].Category)
}
