package fx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finadm/internal/models"
)

type countingSource struct {
	calls atomic.Int32
	rate  decimal.Decimal
	delay time.Duration
	err   error
}

func (s *countingSource) Quote(_ context.Context, _, _ string) (Quote, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return Quote{}, s.err
	}
	return Quote{Rate: s.rate, Date: time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)}, nil
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("reuses a fresh quote", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{rate: decimal.RequireFromString("0.2")}
		c := NewCache(src, time.Hour)

		for range 3 {
			q, err := c.Quote(context.Background(), "BRL", "usd")
			require.NoError(t, err)
			require.True(t, decimal.RequireFromString("0.2").Equal(q.Rate))
		}
		require.EqualValues(t, 1, src.calls.Load())
	})

	t.Run("keys by pair", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{rate: decimal.RequireFromString("0.2")}
		c := NewCache(src, time.Hour)

		_, err := c.Quote(context.Background(), "BRL", "USD")
		require.NoError(t, err)
		_, err = c.Quote(context.Background(), "BRL", "EUR")
		require.NoError(t, err)
		require.EqualValues(t, 2, src.calls.Load())
	})

	t.Run("refetches after ttl", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{rate: decimal.RequireFromString("0.2")}
		c := NewCache(src, time.Minute)
		now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		_, err := c.Quote(context.Background(), "BRL", "USD")
		require.NoError(t, err)
		now = now.Add(2 * time.Minute)
		_, err = c.Quote(context.Background(), "BRL", "USD")
		require.NoError(t, err)
		require.EqualValues(t, 2, src.calls.Load())
	})

	t.Run("concurrent misses share one call", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{rate: decimal.RequireFromString("0.2"), delay: 20 * time.Millisecond}
		c := NewCache(src, time.Hour)

		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				_, err := c.Quote(context.Background(), "BRL", "USD")
				assert.NoError(t, err)
			})
		}
		wg.Wait()
		require.EqualValues(t, 1, src.calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{err: errors.New("down")}
		c := NewCache(src, time.Hour)

		_, err := c.Quote(context.Background(), "BRL", "USD")
		require.EqualError(t, err, "down")
		_, err = c.Quote(context.Background(), "BRL", "USD")
		require.Error(t, err)
		require.EqualValues(t, 2, src.calls.Load())
	})
}

func TestConverter(t *testing.T) {
	t.Parallel()
	src := &countingSource{rate: decimal.RequireFromString("0.1754")}
	c := NewConverter(src)
	ctx := context.Background()

	v, err := c.Convert(ctx, decimal.NewFromInt(100), "", "USD")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("17.54").Equal(v))

	v, err = c.Convert(ctx, decimal.NewFromInt(100), "usd", "USD")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(100).Equal(v))

	_, err = c.Convert(ctx, decimal.NewFromInt(1), "BRL", "")
	require.Error(t, err)

	accounts := []models.Account{
		{Name: "Checking", Balance: decimal.NewFromInt(2500), Currency: "BRL"},
		{Name: "Cash", Balance: decimal.NewFromInt(10), Currency: "USD"},
	}
	each, total, err := c.Balances(ctx, accounts, "USD")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("438.5").Equal(each[0]))
	require.True(t, decimal.NewFromInt(10).Equal(each[1]))
	require.True(t, decimal.RequireFromString("448.5").Equal(total))

	src.err = errors.New("down")
	_, _, err = NewConverter(NewCache(src, time.Hour)).Balances(ctx, accounts[:1], "EUR")
	require.ErrorContains(t, err, "failed to convert BRL to EUR")
}
