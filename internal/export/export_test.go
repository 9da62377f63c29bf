package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/models"
)

func TestTransactionsCSV(t *testing.T) {
	t.Parallel()

	t.Run("header and signed rows", func(t *testing.T) {
		t.Parallel()
		data, err := TransactionsCSV([]models.Transaction{
			{ID: "t1", Date: "2024-03-01", Type: models.TypeIncome, Amount: decimal.NewFromInt(5000), Category: "Salary", Description: "March"},
			{ID: "t2", Date: "2024-03-02", Type: models.TypeExpense, Amount: decimal.NewFromFloat(12.5), Description: "Coffee, large", Tags: []string{"cafe", "work"}},
		})
		require.NoError(t, err)

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, []string{"ID", "Date", "Type", "Amount", "Category", "Description", "Tags"}, records[0])
		require.Equal(t, []string{"t1", "2024-03-01", "income", "5000.00", "Salary", "March", ""}, records[1])
		require.Equal(t, []string{"t2", "2024-03-02", "expense", "-12.50", "Uncategorized", "Coffee, large", "cafe;work"}, records[2])
	})

	t.Run("empty list has only a header", func(t *testing.T) {
		t.Parallel()
		data, err := TransactionsCSV(nil)
		require.NoError(t, err)
		require.Equal(t, "ID,Date,Type,Amount,Category,Description,Tags\n", string(data))
	})
}

func TestPeriodRange(t *testing.T) {
	t.Parallel()

	// Wednesday
	now := time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC)

	from, to := PeriodRange(PeriodWeek, now)
	require.Equal(t, "2024-02-12", from)
	require.Equal(t, "2024-02-18", to)

	from, to = PeriodRange(PeriodMonth, now)
	require.Equal(t, "2024-02-01", from)
	require.Equal(t, "2024-02-29", to)

	sunday := time.Date(2024, 2, 18, 9, 0, 0, 0, time.UTC)
	from, _ = PeriodRange(PeriodWeek, sunday)
	require.Equal(t, "2024-02-12", from)

	from, to = PeriodRange("year", now)
	require.Empty(t, from)
	require.Empty(t, to)
}

func TestFilename(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC)
	require.Equal(t, "transactions_2024-02-14.csv", Filename("transactions", "", "csv", now))
	require.Equal(t, "transactions_week_2024-02-12.csv", Filename("transactions", PeriodWeek, "csv", now))
	require.Equal(t, "report_month_2024-02.pdf", Filename("report", PeriodMonth, "pdf", now))
}

func TestWriteBlob(t *testing.T) {
	t.Parallel()

	t.Run("explicit file path", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "nested", "out.csv")

		got, err := WriteBlob(target, "fallback.csv", &apiclient.Blob{Data: []byte("a,b\n"), Filename: "server.csv"})
		require.NoError(t, err)
		require.Equal(t, target, got)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		require.Equal(t, "a,b\n", string(data))
	})

	t.Run("directory uses the server filename", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		got, err := WriteBlob(dir, "fallback.csv", &apiclient.Blob{Data: []byte("x"), Filename: "../server.csv"})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "server.csv"), got)
	})

	t.Run("directory falls back when the server sends no name", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		got, err := WriteBlob(dir, "fallback.csv", &apiclient.Blob{Data: []byte("x")})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "fallback.csv"), got)
	})

	t.Run("nil blob", func(t *testing.T) {
		t.Parallel()
		_, err := WriteBlob(t.TempDir(), "f", nil)
		require.Error(t, err)
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := WriteBlob(filepath.Join(dir, "a.bin"), "", &apiclient.Blob{Data: []byte("1")})
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}
