// Package apiclient is the shared request pipeline for the FinAdm backend:
// bearer auth, transparent token refresh and error normalization.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/logger"
)

// TokenStore is where the client reads and rotates credentials.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	ClearAuthData(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport is wrapped with otelhttp. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Tokens    TokenStore
	// OnAuthFailure runs after the session is torn down by an
	// unrecoverable 401.
	OnAuthFailure func()
}

// Client sends requests to the backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokens        TokenStore
	onAuthFailure func()
	refresher     *refresher
	metrics       *clientMetrics
}

// New creates a Client.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = config.DefaultAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		tokens:        opts.Tokens,
		onAuthFailure: opts.OnAuthFailure,
		refresher:     &refresher{},
		metrics:       newClientMetrics(),
	}
}

// BaseURL returns the API base the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request is one API call. Body is JSON-encoded unless it is a []byte,
// which is sent as-is with ContentType.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	ContentType string
}

// Response is a successful backend reply with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do sends req. A 401 on a request that carried a token triggers one
// refresh-and-retry; every failure comes back as *apierr.Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	gen := c.refresher.generation()
	token := c.accessToken(ctx)

	resp, err := c.send(ctx, req, body, contentType, token)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized && token != "" && c.tokens != nil {
		newToken, err := c.recoverUnauthorized(ctx, gen)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, req, body, contentType, newToken)
		if err != nil {
			return nil, err
		}
	}

	if resp.Status >= 400 {
		return nil, responseError(resp)
	}
	return resp, nil
}

func (c *Client) accessToken(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to read access token")
		return ""
	}
	return token
}

func encodeBody(req Request) ([]byte, string, error) {
	switch b := req.Body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		ct := req.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		return b, ct, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, "application/json", nil
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs one round trip. Transport failures are normalized here;
// HTTP error statuses are returned as a Response for the caller to classify.
func (c *Client) send(ctx context.Context, req Request, body []byte, contentType, token string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.endpoint(req.Path, req.Query), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.recordRequest(ctx, req.Method, 0)
		logger.Log.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Dur("duration", time.Since(start)).
			Msg("API request failed")
		return nil, transportError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	c.metrics.recordRequest(ctx, req.Method, httpResp.StatusCode)
	logger.Log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if httpResp.StatusCode == http.StatusForbidden {
		logger.Log.Warn().Str("path", req.Path).Msg("Access denied for resource")
	}

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   data,
	}, nil
}
