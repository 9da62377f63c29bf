package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/logger"
)

var errNoRefreshToken = errors.New("refresh token not found")

// refreshCall is one in-flight token refresh. done is closed once token
// and err are final.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// refresher allows at most one refresh at a time and fans its result out
// to every request that hit a 401 while it ran.
type refresher struct {
	mu   sync.Mutex
	call *refreshCall
	// gen counts successful refreshes. A request that observed an older
	// generation was sent with a token that has since been replaced.
	gen uint64
}

func (r *refresher) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// beginRefresh joins the in-flight refresh or starts a new one. rotated
// is true when a refresh already succeeded after gen was observed, in
// which case the caller retries with the stored token instead.
func (r *refresher) beginRefresh(gen uint64) (call *refreshCall, leader, rotated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.call != nil {
		return r.call, false, false
	}
	if r.gen != gen {
		return nil, false, true
	}
	r.call = &refreshCall{done: make(chan struct{})}
	return r.call, true, false
}

// completeRefresh publishes the outcome and clears the in-flight marker.
func (r *refresher) completeRefresh(call *refreshCall, token string, err error) {
	r.mu.Lock()
	call.token = token
	call.err = err
	if err == nil {
		r.gen++
	}
	r.call = nil
	r.mu.Unlock()
	close(call.done)
}

// inFlight reports whether a refresh is running.
func (r *refresher) inFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.call != nil
}

// recoverUnauthorized returns the token to retry with after a 401.
func (c *Client) recoverUnauthorized(ctx context.Context, gen uint64) (string, error) {
	call, leader, rotated := c.refresher.beginRefresh(gen)
	if rotated {
		token := c.accessToken(ctx)
		if token == "" {
			return "", apierr.SessionExpired(errNoRefreshToken)
		}
		return token, nil
	}

	if leader {
		// Detached from the caller so one short deadline cannot fail
		// every request queued behind this refresh.
		go c.runRefresh(context.WithoutCancel(ctx), call)
	}

	select {
	case <-ctx.Done():
		return "", apierr.Wrap(ctx.Err(), 0, apierr.CodeNetwork, "request canceled while waiting for token refresh")
	case <-call.done:
		return call.token, call.err
	}
}

func (c *Client) runRefresh(ctx context.Context, call *refreshCall) {
	var (
		token string
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("token refresh panicked: %v", r)
		}
		c.metrics.recordRefresh(ctx, err == nil)
		c.refresher.completeRefresh(call, token, err)
	}()

	token, err = c.refresh(ctx)
}

// refresh exchanges the stored refresh token for a new access token.
// Any failure tears the session down.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil || refreshToken == "" {
		if err == nil {
			err = errNoRefreshToken
		}
		logger.Log.Info().Msg("No refresh token available, ending session")
		c.handleAuthFailure(ctx)
		return "", apierr.SessionExpired(err)
	}

	access, rotated, err := c.exchange(ctx, refreshToken)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Token refresh failed, ending session")
		c.handleAuthFailure(ctx)
		return "", apierr.SessionExpired(err)
	}

	if err := c.tokens.SetTokens(ctx, access, rotated); err != nil {
		c.handleAuthFailure(ctx)
		return "", apierr.SessionExpired(fmt.Errorf("failed to persist refreshed tokens: %w", err))
	}

	logger.Log.Debug().Str("token", logger.RedactToken(access)).Msg("Access token refreshed")
	return access, nil
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Data         *struct {
		AccessToken  string `json:"accessToken"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// exchange posts the refresh token directly, bypassing Do so a 401 here
// cannot recurse into another refresh.
func (c *Client) exchange(ctx context.Context, refreshToken string) (access, rotated string, err error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/auth/refresh", nil), bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", transportError(err)
	}
	if resp.StatusCode >= 400 {
		return "", "", responseError(&Response{Status: resp.StatusCode, Header: resp.Header, Body: data})
	}

	var body refreshResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return "", "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if body.Data != nil {
		body.AccessToken = firstNonEmpty(body.AccessToken, body.Data.AccessToken, body.Data.Token)
		body.RefreshToken = firstNonEmpty(body.RefreshToken, body.Data.RefreshToken)
	}

	access = firstNonEmpty(body.AccessToken, body.Token)
	if access == "" {
		return "", "", errors.New("refresh response missing access token")
	}
	return access, body.RefreshToken, nil
}

// handleAuthFailure clears credentials and notifies the owner.
func (c *Client) handleAuthFailure(ctx context.Context) {
	if err := c.tokens.ClearAuthData(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to clear session after auth failure")
	}
	if c.onAuthFailure != nil {
		c.onAuthFailure()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
