package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// Manager reads and writes auth data and local preferences on a Store.
type Manager struct {
	store Store
}

// NewManager creates a Manager over store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// SaveAuthData persists the token pair and the user.
func (m *Manager) SaveAuthData(ctx context.Context, s models.Session) error {
	userJSON, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := m.store.Set(ctx, config.KeyAccessToken, s.AccessToken); err != nil {
		return err
	}
	if err := m.store.Set(ctx, config.KeyRefreshToken, s.RefreshToken); err != nil {
		return err
	}
	return m.store.Set(ctx, config.KeyUser, string(userJSON))
}

// ClearAuthData removes the token pair and the user.
func (m *Manager) ClearAuthData(ctx context.Context) error {
	return m.store.Delete(ctx, config.KeyAccessToken, config.KeyRefreshToken, config.KeyUser)
}

// ClearAll removes everything in the store, preferences included.
func (m *Manager) ClearAll(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// CurrentUser returns the cached user, or nil when absent or unreadable.
func (m *Manager) CurrentUser(ctx context.Context) (*models.User, error) {
	raw, ok, err := m.store.Get(ctx, config.KeyUser)
	if err != nil || !ok || raw == "" {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logger.Log.Warn().Err(err).Msg("Cached user is not valid JSON, treating as absent")
		return nil, nil
	}
	return &user, nil
}

// SetCurrentUser replaces the cached user.
func (m *Manager) SetCurrentUser(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return m.store.Set(ctx, config.KeyUser, string(data))
}

// AccessToken returns the stored access token or "".
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	v, _, err := m.store.Get(ctx, config.KeyAccessToken)
	return v, err
}

// RefreshToken returns the stored refresh token or "".
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := m.store.Get(ctx, config.KeyRefreshToken)
	return v, err
}

// SetTokens stores a new access token, and the refresh token when non-empty.
func (m *Manager) SetTokens(ctx context.Context, access, refresh string) error {
	if err := m.store.Set(ctx, config.KeyAccessToken, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return m.store.Set(ctx, config.KeyRefreshToken, refresh)
}

// IsAuthenticated is true when an access token and a readable user are both present.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.AccessToken(ctx)
	if err != nil || token == "" {
		return false
	}
	user, err := m.CurrentUser(ctx)
	return err == nil && user != nil
}

// IsAdmin reports whether the cached user is an admin.
func (m *Manager) IsAdmin(ctx context.Context) bool {
	user, err := m.CurrentUser(ctx)
	return err == nil && user.IsAdmin()
}

// TokenExpiry reads the exp claim of the stored access token without
// verifying its signature. ok is false for opaque or exp-less tokens.
func (m *Manager) TokenExpiry(ctx context.Context) (exp time.Time, ok bool) {
	token, err := m.AccessToken(ctx)
	if err != nil || token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}

// SaveSettings caches settings as JSON.
func (m *Manager) SaveSettings(ctx context.Context, s models.UserSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return m.store.Set(ctx, config.KeySettings, string(data))
}

// LocalSettings returns the cached settings, or nil when absent or unreadable.
func (m *Manager) LocalSettings(ctx context.Context) *models.UserSettings {
	raw, ok, err := m.store.Get(ctx, config.KeySettings)
	if err != nil || !ok || raw == "" {
		return nil
	}
	var s models.UserSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logger.Log.Warn().Err(err).Msg("Cached settings are not valid JSON, ignoring")
		return nil
	}
	return &s
}

// SaveTheme caches the theme preference.
func (m *Manager) SaveTheme(ctx context.Context, theme models.Theme) error {
	return m.store.Set(ctx, config.KeyTheme, string(theme))
}

// LocalTheme returns the cached theme, or "" when unset.
func (m *Manager) LocalTheme(ctx context.Context) models.Theme {
	raw, _, err := m.store.Get(ctx, config.KeyTheme)
	if err != nil {
		return ""
	}
	return models.Theme(raw)
}
