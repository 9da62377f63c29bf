// Package fx converts money between currencies using daily reference rates.
package fx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

var (
	errRateMissing     = errors.New("rate missing in response")
	errNonPositiveRate = errors.New("rate must be positive")
)

// Quote is the rate for one currency pair on one day.
type Quote struct {
	Rate decimal.Decimal
	Date time.Time
}

// RateSource looks up a quote for from->to. Codes are upper-case ISO 4217.
type RateSource interface {
	Quote(ctx context.Context, from, to string) (Quote, error)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Converter applies quotes from a RateSource.
type Converter struct {
	rates RateSource
}

// NewConverter creates a Converter.
func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert returns amount in the target currency, rounded to cents. An
// empty source currency means models.DefaultCurrency.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = normalize(from), normalize(to)
	if from == "" {
		from = models.DefaultCurrency
	}
	if to == "" {
		return decimal.Zero, errors.New("target currency is required")
	}
	if from == to || amount.IsZero() {
		return amount, nil
	}

	q, err := c.rates.Quote(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert %s to %s: %w", from, to, err)
	}
	return amount.Mul(q.Rate).Round(2), nil
}

// Balances converts each account balance into to and returns the
// converted values in account order plus their sum.
func (c *Converter) Balances(ctx context.Context, accounts []models.Account, to string) ([]decimal.Decimal, decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(accounts))
	total := decimal.Zero
	for i, acc := range accounts {
		v, err := c.Convert(ctx, acc.Balance, acc.Currency, to)
		if err != nil {
			return nil, decimal.Zero, err
		}
		out[i] = v
		total = total.Add(v)
	}
	return out, total, nil
}
