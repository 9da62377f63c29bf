// Package hooks keeps per-resource state on top of the services: the last
// fetched data, a loading/error status, and mutations that refetch after
// every write. Each hook is safe for concurrent use.
package hooks

import (
	"context"
	"sync"

	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// Status is where a hook is in its fetch cycle.
type Status int

// Statuses. Every explicit load re-enters StatusLoading.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// UserSource reports the logged-in user. A nil user means no session.
type UserSource interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// defaultPagination is what list hooks report before their first fetch.
var defaultPagination = models.Pagination{
	Current: config.DefaultPage,
	Pages:   1,
	Total:   0,
	Limit:   config.DefaultLimit,
}

// state is the status machine shared by every hook. mu also guards the
// embedding hook's data.
type state struct {
	mu     sync.Mutex
	status Status
	err    error
}

// Status returns the current status.
func (s *state) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of the last failed load, or nil.
func (s *state) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loading reports whether a load is in progress.
func (s *state) Loading() bool {
	return s.Status() == StatusLoading
}

func (s *state) begin() {
	s.mu.Lock()
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()
}

// failLocked records a load failure. Caller holds mu.
func (s *state) failLocked(err error) {
	s.status = StatusError
	s.err = err
}

// succeedLocked records a successful load. Caller holds mu.
func (s *state) succeedLocked() {
	s.status = StatusSuccess
	s.err = nil
}

// idleLocked resets the status for a missing session. Caller holds mu.
func (s *state) idleLocked() {
	s.status = StatusIdle
	s.err = nil
}

// sessionUser returns the logged-in user, or nil. A failing source counts
// as no session.
func sessionUser(ctx context.Context, users UserSource) *models.User {
	if users == nil {
		return nil
	}
	u, err := users.CurrentUser(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to read current user")
		return nil
	}
	return u
}
