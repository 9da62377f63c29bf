// Package export writes downloads and client-side CSV exports to disk.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// Periods understood by PeriodRange.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

const uncategorized = "Uncategorized"

// TransactionsCSV renders transactions as CSV. Expense amounts are signed.
func TransactionsCSV(txs []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Type", "Amount", "Category", "Description", "Tags"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range txs {
		category := txs[i].Category
		if category == "" {
			category = uncategorized
		}

		row := []string{
			txs[i].ID,
			txs[i].Date,
			string(txs[i].Type),
			txs[i].SignedAmount().StringFixed(2),
			category,
			txs[i].Description,
			strings.Join(txs[i].Tags, ";"),
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PeriodRange returns the from/to dates (YYYY-MM-DD) of the week or month
// containing now. Weeks start on Monday. Unknown periods yield empty dates.
func PeriodRange(period string, now time.Time) (from, to string) {
	switch period {
	case PeriodWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(now.Year(), now.Month(), now.Day()-weekday+1, 0, 0, 0, 0, now.Location())
		return start.Format(time.DateOnly), start.AddDate(0, 0, 6).Format(time.DateOnly)
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start.Format(time.DateOnly), start.AddDate(0, 1, -1).Format(time.DateOnly)
	default:
		return "", ""
	}
}

// Filename builds a dated download name such as transactions_2024-03-01.csv.
func Filename(prefix, period, ext string, now time.Time) string {
	switch period {
	case PeriodWeek:
		from, _ := PeriodRange(PeriodWeek, now)
		return fmt.Sprintf("%s_week_%s.%s", prefix, from, ext)
	case PeriodMonth:
		return fmt.Sprintf("%s_month_%s.%s", prefix, now.Format("2006-01"), ext)
	default:
		return fmt.Sprintf("%s_%s.%s", prefix, now.Format(time.DateOnly), ext)
	}
}
