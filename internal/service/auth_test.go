package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/models"
)

const loginBody = `{"token":"jwt-abc","user":{"userId":"u1","name":"Ana","email":"ana@fin.local","role":"admin"}}`

func TestAuthLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists the session", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI().on(http.MethodPost, "/users/login", loginBody)
		svc, sess := newTestServices(api)

		s, err := svc.Auth.Login(ctx, LoginCredentials{Email: "ana@fin.local", Password: "secret"})
		require.NoError(t, err)
		require.Equal(t, "jwt-abc", s.AccessToken)
		require.Equal(t, "u1", s.User.ID)

		var sent LoginCredentials
		require.NoError(t, json.Unmarshal(api.last().Body, &sent))
		require.Equal(t, "ana@fin.local", sent.Email)

		token, err := sess.AccessToken(ctx)
		require.NoError(t, err)
		require.Equal(t, "jwt-abc", token)
		require.True(t, svc.Auth.IsAuthenticated(ctx))
		require.True(t, svc.Auth.IsAdmin(ctx))
	})

	t.Run("failure leaves no session", func(t *testing.T) {
		t.Parallel()
		invalid := apierr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		api := newFakeAPI().fail(http.MethodPost, "/users/login", invalid)
		svc, _ := newTestServices(api)

		_, err := svc.Auth.Login(ctx, LoginCredentials{Email: "ana@fin.local", Password: "nope"})
		require.ErrorIs(t, err, invalid)
		require.False(t, svc.Auth.IsAuthenticated(ctx))
	})

	t.Run("register uses its own endpoint", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI().on(http.MethodPost, "/users/register", loginBody)
		svc, _ := newTestServices(api)

		_, err := svc.Auth.Register(ctx, RegisterData{Name: "Ana", Email: "ana@fin.local", Password: "secret"})
		require.NoError(t, err)
		require.Equal(t, "/users/register", api.last().Path)
	})
}

func TestAuthRefreshAndLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, sess := newTestServices(newFakeAPI())

	_, err := svc.Auth.Refresh(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "refresh token not found")

	require.NoError(t, sess.SaveAuthData(ctx, models.Session{AccessToken: "a", RefreshToken: "r", User: models.User{ID: "u1"}}))
	_, err = svc.Auth.Refresh(ctx)
	require.ErrorIs(t, err, apierr.ErrNotImplemented)

	require.NoError(t, svc.Auth.Logout(ctx))
	require.False(t, svc.Auth.IsAuthenticated(ctx))
	rt, err := svc.Auth.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, rt)
}

func TestAuthPasswordRecoveryNotImplemented(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeAPI()
	svc, _ := newTestServices(api)

	require.ErrorIs(t, svc.Auth.ForgotPassword(ctx, "ana@fin.local"), apierr.ErrNotImplemented)
	require.ErrorIs(t, svc.Auth.ResetPassword(ctx, "token", "new"), apierr.ErrNotImplemented)
	require.Zero(t, api.count())
}

func TestAuthProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("current profile requires a session", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestServices(newFakeAPI())
		_, err := svc.Auth.CurrentUserProfile(ctx)
		require.ErrorIs(t, err, apierr.ErrNotAuthenticated)
	})

	t.Run("refreshes the cached user", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI().on(http.MethodGet, "/users/profile/u1", `{"data":{"user":{"id":"u1","name":"Ana Maria","role":"admin"}}}`)
		svc, sess := newTestServices(api)
		require.NoError(t, sess.SaveAuthData(ctx, models.Session{AccessToken: "a", User: models.User{ID: "u1", Name: "Ana"}}))

		u, err := svc.Auth.CurrentUserProfile(ctx)
		require.NoError(t, err)
		require.Equal(t, "Ana Maria", u.Name)

		cached, err := svc.Auth.CurrentUser(ctx)
		require.NoError(t, err)
		require.Equal(t, "Ana Maria", cached.Name)
	})

	t.Run("other users do not touch the cache", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI().on(http.MethodPut, "/users/profile/u2", `{"user":{"id":"u2","name":"Bruno"}}`)
		svc, sess := newTestServices(api)
		require.NoError(t, sess.SaveAuthData(ctx, models.Session{AccessToken: "a", User: models.User{ID: "u1", Name: "Ana"}}))

		name := "Bruno"
		u, err := svc.Auth.UpdateProfile(ctx, "u2", ProfileUpdate{Name: &name})
		require.NoError(t, err)
		require.Equal(t, "u2", u.ID)
		require.JSONEq(t, `{"name":"Bruno"}`, string(api.last().Body))

		cached, err := svc.Auth.CurrentUser(ctx)
		require.NoError(t, err)
		require.Equal(t, "Ana", cached.Name)
	})

	t.Run("stats and change password", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI().
			on(http.MethodGet, "/users/stats/u1", `{"stats":{"transactionCount":4,"profileCompletion":80,"monthlyIncome":1500}}`).
			on(http.MethodPost, "/users/u1/change-password", `{}`)
		svc, _ := newTestServices(api)

		stats, err := svc.Auth.GetUserStats(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, 4, stats.TransactionCount)
		require.Equal(t, 80, stats.ProfileCompletion)

		require.NoError(t, svc.Auth.ChangePassword(ctx, "u1", "old", "new"))
		require.JSONEq(t, `{"oldPassword":"old","newPassword":"new"}`, string(api.last().Body))
	})

	t.Run("errors pass through untouched", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		api := newFakeAPI().fail(http.MethodGet, "/users/profile/u1", boom)
		svc, _ := newTestServices(api)

		_, err := svc.Auth.GetUser(ctx, "u1")
		require.ErrorIs(t, err, boom)
	})
}
