package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/finadm/internal/logger"
)

// DefaultBaseURL is the public Frankfurter API.
const DefaultBaseURL = "https://api.frankfurter.app"

// Frankfurter reads rates from a Frankfurter-compatible API.
type Frankfurter struct {
	baseURL    string
	httpClient *http.Client
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewFrankfurter creates a client. A nil transport means http.DefaultTransport.
func NewFrankfurter(baseURL string, timeout time.Duration, transport http.RoundTripper) *Frankfurter {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Frankfurter{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

// Quote fetches the latest from->to rate.
func (f *Frankfurter) Quote(ctx context.Context, from, to string) (Quote, error) {
	from, to = normalize(from), normalize(to)
	if from == "" || to == "" {
		return Quote{}, errors.New("from and to currencies are required")
	}
	if from == to {
		return Quote{Rate: decimal.NewFromInt(1), Date: time.Now().UTC()}, nil
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create rate request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to request rate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload latestResponse
	if err := dec.Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return Quote{}, errRateMissing
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Quote{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if !rate.IsPositive() {
		return Quote{}, errNonPositiveRate
	}
	date, err := time.Parse(time.DateOnly, payload.Date)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to parse rate date: %w", err)
	}

	logger.Log.Debug().Str("pair", from+"->"+to).Str("rate", rate.String()).Msg("Fetched exchange rate")
	return Quote{Rate: rate, Date: date}, nil
}
