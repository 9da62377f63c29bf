package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/models"
)

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store), store
}

func sampleSession() models.Session {
	return models.Session{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresIn:    config.DefaultExpiresIn,
		User: models.User{
			ID:    "u1",
			Name:  "Ana",
			Email: "ana@fin.local",
			Role:  models.RoleAdmin,
		},
	}
}

func TestManagerAuthData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("save then read returns the same data", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		s := sampleSession()
		require.NoError(t, m.SaveAuthData(ctx, s))

		access, err := m.AccessToken(ctx)
		require.NoError(t, err)
		require.Equal(t, s.AccessToken, access)

		refresh, err := m.RefreshToken(ctx)
		require.NoError(t, err)
		require.Equal(t, s.RefreshToken, refresh)

		user, err := m.CurrentUser(ctx)
		require.NoError(t, err)
		require.Equal(t, s.User, *user)

		require.True(t, m.IsAuthenticated(ctx))
		require.True(t, m.IsAdmin(ctx))
	})

	t.Run("clear removes the three auth keys only", func(t *testing.T) {
		t.Parallel()
		m, store := newTestManager()
		require.NoError(t, m.SaveAuthData(ctx, sampleSession()))
		require.NoError(t, m.SaveTheme(ctx, models.ThemeDark))

		require.NoError(t, m.ClearAuthData(ctx))

		for _, k := range []string{config.KeyAccessToken, config.KeyRefreshToken, config.KeyUser} {
			_, ok, err := store.Get(ctx, k)
			require.NoError(t, err)
			require.False(t, ok, k)
		}
		require.False(t, m.IsAuthenticated(ctx))
		require.Equal(t, models.ThemeDark, m.LocalTheme(ctx))
	})

	t.Run("clear all removes preferences too", func(t *testing.T) {
		t.Parallel()
		m, store := newTestManager()
		require.NoError(t, m.SaveAuthData(ctx, sampleSession()))
		require.NoError(t, m.SaveTheme(ctx, models.ThemeDark))

		require.NoError(t, m.ClearAll(ctx))
		require.Zero(t, store.Len())
	})

	t.Run("token without user is not authenticated", func(t *testing.T) {
		t.Parallel()
		m, store := newTestManager()
		require.NoError(t, store.Set(ctx, config.KeyAccessToken, "tok"))
		require.False(t, m.IsAuthenticated(ctx))
	})

	t.Run("user without token is not authenticated", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		require.NoError(t, m.SetCurrentUser(ctx, models.User{ID: "u1"}))
		require.False(t, m.IsAuthenticated(ctx))
	})

	t.Run("malformed cached user reads as absent", func(t *testing.T) {
		t.Parallel()
		m, store := newTestManager()
		require.NoError(t, store.Set(ctx, config.KeyAccessToken, "tok"))
		require.NoError(t, store.Set(ctx, config.KeyUser, "{broken"))

		user, err := m.CurrentUser(ctx)
		require.NoError(t, err)
		require.Nil(t, user)
		require.False(t, m.IsAuthenticated(ctx))
		require.False(t, m.IsAdmin(ctx))
	})

	t.Run("set tokens keeps refresh token when none is returned", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		require.NoError(t, m.SaveAuthData(ctx, sampleSession()))
		require.NoError(t, m.SetTokens(ctx, "access-new", ""))

		access, _ := m.AccessToken(ctx)
		refresh, _ := m.RefreshToken(ctx)
		require.Equal(t, "access-new", access)
		require.Equal(t, "refresh-456", refresh)

		require.NoError(t, m.SetTokens(ctx, "access-3", "refresh-3"))
		refresh, _ = m.RefreshToken(ctx)
		require.Equal(t, "refresh-3", refresh)
	})
}

func TestManagerAuthRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		m, _ := newTestManager()

		s := models.Session{
			AccessToken:  rapid.StringMatching(`[A-Za-z0-9._-]{1,64}`).Draw(t, "access"),
			RefreshToken: rapid.StringMatching(`[A-Za-z0-9._-]{1,64}`).Draw(t, "refresh"),
			User: models.User{
				ID:    rapid.StringMatching(`[a-z0-9-]{1,24}`).Draw(t, "id"),
				Name:  rapid.String().Draw(t, "name"),
				Email: rapid.String().Draw(t, "email"),
				Role:  rapid.SampledFrom([]models.Role{models.RoleNormal, models.RoleAdmin}).Draw(t, "role"),
			},
		}

		if err := m.SaveAuthData(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}

		access, _ := m.AccessToken(ctx)
		refresh, _ := m.RefreshToken(ctx)
		user, err := m.CurrentUser(ctx)
		if err != nil || user == nil {
			t.Fatalf("current user: %v", err)
		}
		if access != s.AccessToken || refresh != s.RefreshToken || *user != s.User {
			t.Fatalf("round trip mismatch: got %q %q %+v", access, refresh, *user)
		}
	})
}

func TestManagerPreferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("settings round trip", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		require.Nil(t, m.LocalSettings(ctx))

		s := models.UserSettings{UserID: "u1", Theme: models.ThemeLight, Language: "pt-BR", Currency: "BRL"}
		s.Notifications.Email = true
		require.NoError(t, m.SaveSettings(ctx, s))
		require.Equal(t, &s, m.LocalSettings(ctx))
	})

	t.Run("malformed settings read as absent", func(t *testing.T) {
		t.Parallel()
		m, store := newTestManager()
		require.NoError(t, store.Set(ctx, config.KeySettings, "nope"))
		require.Nil(t, m.LocalSettings(ctx))
	})

	t.Run("theme round trip", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		require.Empty(t, m.LocalTheme(ctx))
		require.NoError(t, m.SaveTheme(ctx, models.ThemeAuto))
		require.Equal(t, models.ThemeAuto, m.LocalTheme(ctx))
	})
}

func TestManagerTokenExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reads exp from a JWT", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("any-key"))
		require.NoError(t, err)
		require.NoError(t, m.SetTokens(ctx, token, ""))

		got, ok := m.TokenExpiry(ctx)
		require.True(t, ok)
		require.True(t, exp.Equal(got))
	})

	t.Run("opaque token has no expiry", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		require.NoError(t, m.SetTokens(ctx, "opaque", ""))
		_, ok := m.TokenExpiry(ctx)
		require.False(t, ok)
	})

	t.Run("missing token has no expiry", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestManager()
		_, ok := m.TokenExpiry(ctx)
		require.False(t, ok)
	})
}
