package hooks

import (
	"context"
	"time"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/export"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// SettingsAPI is the part of service.SettingsService the hook uses.
type SettingsAPI interface {
	GetSettings(ctx context.Context) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, update models.SettingsUpdate) (*models.UserSettings, error)
	UpdateTheme(ctx context.Context, theme models.Theme) error
	UpdateNotifications(ctx context.Context, n models.NotificationSettings) error
	UpdatePrivacy(ctx context.Context, p models.PrivacySettings) error
	ResetToDefaults(ctx context.Context) (*models.UserSettings, error)
	ExportUserData(ctx context.Context) (*apiclient.Blob, error)
	DeleteAccount(ctx context.Context, password string) error
	LocalSettings(ctx context.Context) *models.UserSettings
}

// Settings holds the user's preferences.
type Settings struct {
	state
	api   SettingsAPI
	users UserSource

	settings *models.UserSettings
}

// NewSettings creates the hook.
func NewSettings(api SettingsAPI, users UserSource) *Settings {
	return &Settings{api: api, users: users}
}

// Settings returns the loaded settings, or nil.
func (h *Settings) Settings() *models.UserSettings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// Load fetches the settings. On failure the locally cached copy is shown
// and the error is still reported.
func (h *Settings) Load(ctx context.Context) error {
	if sessionUser(ctx, h.users) == nil {
		h.mu.Lock()
		h.idleLocked()
		h.settings = nil
		h.mu.Unlock()
		return nil
	}

	h.begin()
	s, err := h.api.GetSettings(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to load settings, using local copy")
		local := h.api.LocalSettings(ctx)
		h.mu.Lock()
		defer h.mu.Unlock()
		if local != nil {
			h.settings = local
		}
		h.failLocked(err)
		return err
	}

	h.set(s)
	return nil
}

func (h *Settings) set(s *models.UserSettings) {
	h.mu.Lock()
	h.settings = s
	h.succeedLocked()
	h.mu.Unlock()
}

// Refresh is Load.
func (h *Settings) Refresh(ctx context.Context) error {
	return h.Load(ctx)
}

// Update applies a partial update and keeps the returned settings.
func (h *Settings) Update(ctx context.Context, update models.SettingsUpdate) (*models.UserSettings, error) {
	if sessionUser(ctx, h.users) == nil {
		return nil, apierr.ErrNotAuthenticated
	}
	s, err := h.api.UpdateSettings(ctx, update)
	if err != nil {
		return nil, err
	}
	h.set(s)
	return s, nil
}

// UpdateTheme switches the theme, then refetches.
func (h *Settings) UpdateTheme(ctx context.Context, theme models.Theme) error {
	if err := h.api.UpdateTheme(ctx, theme); err != nil {
		return err
	}
	_ = h.Load(ctx)
	return nil
}

// UpdateNotifications replaces the notification toggles, then refetches.
func (h *Settings) UpdateNotifications(ctx context.Context, n models.NotificationSettings) error {
	if err := h.api.UpdateNotifications(ctx, n); err != nil {
		return err
	}
	_ = h.Load(ctx)
	return nil
}

// UpdatePrivacy replaces the privacy toggles, then refetches.
func (h *Settings) UpdatePrivacy(ctx context.Context, p models.PrivacySettings) error {
	if err := h.api.UpdatePrivacy(ctx, p); err != nil {
		return err
	}
	_ = h.Load(ctx)
	return nil
}

// Reset restores the defaults.
func (h *Settings) Reset(ctx context.Context) (*models.UserSettings, error) {
	s, err := h.api.ResetToDefaults(ctx)
	if err != nil {
		return nil, err
	}
	h.set(s)
	return s, nil
}

// ExportUserData downloads the user's data into path.
func (h *Settings) ExportUserData(ctx context.Context, path string) (string, error) {
	blob, err := h.api.ExportUserData(ctx)
	if err != nil {
		return "", err
	}
	return export.WriteBlob(path, export.Filename("finadm-data", "", "json", time.Now()), blob)
}

// DeleteAccount deletes the account and forgets the settings.
func (h *Settings) DeleteAccount(ctx context.Context, password string) error {
	if err := h.api.DeleteAccount(ctx, password); err != nil {
		return err
	}
	h.mu.Lock()
	h.settings = nil
	h.idleLocked()
	h.mu.Unlock()
	return nil
}
