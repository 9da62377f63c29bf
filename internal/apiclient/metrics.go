package apiclient

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/finadm/internal/logger"
)

const meterName = "gitlab.com/yelinaung/finadm/internal/apiclient"

type clientMetrics struct {
	requests  metric.Int64Counter
	refreshes metric.Int64Counter
}

// newClientMetrics binds instruments to the global meter provider, which
// is a no-op until telemetry is enabled.
func newClientMetrics() *clientMetrics {
	meter := otel.Meter(meterName)
	m := &clientMetrics{}

	var err error
	m.requests, err = meter.Int64Counter("finadm.client.requests",
		metric.WithDescription("API requests by method and status"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create request counter")
	}
	m.refreshes, err = meter.Int64Counter("finadm.client.token_refreshes",
		metric.WithDescription("Access token refresh attempts by outcome"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create refresh counter")
	}
	return m
}

func (m *clientMetrics) recordRequest(ctx context.Context, method string, status int) {
	if m.requests == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.status", strconv.Itoa(status)),
	))
}

func (m *clientMetrics) recordRefresh(ctx context.Context, ok bool) {
	if m.refreshes == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
