package service

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/session"
)

// SettingsService covers user preferences. Settings and theme are mirrored
// into the session store so they survive an unreachable backend.
type SettingsService struct {
	api     API
	session *session.Manager
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(api API, sess *session.Manager) *SettingsService {
	return &SettingsService{api: api, session: sess}
}

// GetSettings fetches and caches the user's settings.
func (s *SettingsService) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	resp, err := s.api.Get(ctx, "/settings", nil)
	if err != nil {
		return nil, err
	}
	return s.cache(ctx, resp)
}

// UpdateSettings applies a partial change and caches the result.
func (s *SettingsService) UpdateSettings(ctx context.Context, update models.SettingsUpdate) (*models.UserSettings, error) {
	resp, err := s.api.Put(ctx, "/settings", update)
	if err != nil {
		return nil, err
	}
	return s.cache(ctx, resp)
}

// UpdateTheme changes the theme and caches it.
func (s *SettingsService) UpdateTheme(ctx context.Context, theme models.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("unknown theme %q", theme)
	}
	if _, err := s.api.Put(ctx, "/settings/theme", map[string]models.Theme{"theme": theme}); err != nil {
		return err
	}
	if err := s.session.SaveTheme(ctx, theme); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to cache theme")
	}
	return nil
}

// UpdateNotifications replaces the notification toggles.
func (s *SettingsService) UpdateNotifications(ctx context.Context, n models.NotificationSettings) error {
	_, err := s.api.Put(ctx, "/settings/notifications", map[string]models.NotificationSettings{"notifications": n})
	return err
}

// UpdatePrivacy replaces the privacy toggles.
func (s *SettingsService) UpdatePrivacy(ctx context.Context, p models.PrivacySettings) error {
	_, err := s.api.Put(ctx, "/settings/privacy", map[string]models.PrivacySettings{"privacy": p})
	return err
}

// ResetToDefaults restores the backend defaults and caches them.
func (s *SettingsService) ResetToDefaults(ctx context.Context) (*models.UserSettings, error) {
	resp, err := s.api.Post(ctx, "/settings/reset", nil)
	if err != nil {
		return nil, err
	}
	return s.cache(ctx, resp)
}

// ExportUserData downloads everything the backend holds for the user.
func (s *SettingsService) ExportUserData(ctx context.Context) (*apiclient.Blob, error) {
	return s.api.GetBlob(ctx, "/settings/export-data", nil)
}

// DeleteAccount deletes the account and wipes every local key.
func (s *SettingsService) DeleteAccount(ctx context.Context, password string) error {
	if _, err := s.api.Post(ctx, "/settings/delete-account", map[string]string{"password": password}); err != nil {
		return err
	}
	if err := s.session.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	return nil
}

// LocalSettings returns the cached settings, or nil.
func (s *SettingsService) LocalSettings(ctx context.Context) *models.UserSettings {
	return s.session.LocalSettings(ctx)
}

// LocalTheme returns the cached theme.
func (s *SettingsService) LocalTheme(ctx context.Context) models.Theme {
	return s.session.LocalTheme(ctx)
}

func (s *SettingsService) cache(ctx context.Context, resp *apiclient.Response) (*models.UserSettings, error) {
	settings, err := entity[models.UserSettings](resp, "settings")
	if err != nil {
		return nil, err
	}
	if err := s.session.SaveSettings(ctx, *settings); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to cache settings")
	}
	return settings, nil
}
