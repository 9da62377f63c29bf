package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/session"
)

// LoginCredentials authenticates a user.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterData creates a normal user.
type RegisterData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Age      *int   `json:"age,omitempty"`
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Name          *string          `json:"name,omitempty"`
	Email         *string          `json:"email,omitempty"`
	Phone         *string          `json:"phone,omitempty"`
	Avatar        *string          `json:"avatar,omitempty"`
	Age           *int             `json:"age,omitempty"`
	Occupation    *string          `json:"occupation,omitempty"`
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome,omitempty"`
	SpendingLimit *decimal.Decimal `json:"spendingLimit,omitempty"`
}

// AuthService handles login state and the user's own profile.
type AuthService struct {
	api     API
	session *session.Manager
}

// NewAuthService creates an AuthService.
func NewAuthService(api API, sess *session.Manager) *AuthService {
	return &AuthService{api: api, session: sess}
}

// Login authenticates and persists the session.
func (s *AuthService) Login(ctx context.Context, creds LoginCredentials) (*models.Session, error) {
	return s.authenticate(ctx, "/users/login", creds)
}

// Register creates an account and persists the resulting session.
func (s *AuthService) Register(ctx context.Context, data RegisterData) (*models.Session, error) {
	return s.authenticate(ctx, "/users/register", data)
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (*models.Session, error) {
	resp, err := s.api.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	sess, err := adaptLoginResponse(m)
	if err != nil {
		return nil, err
	}
	if err := s.session.SaveAuthData(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(sess.User.ID)).
		Str("role", string(sess.User.Role)).
		Msg("Logged in")
	return &sess, nil
}

// Refresh fails fast: the backend has no client-callable refresh endpoint.
// Expired tokens are recovered by the request pipeline instead.
func (s *AuthService) Refresh(ctx context.Context) (*models.TokenPair, error) {
	rt, err := s.session.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if rt == "" {
		return nil, apierr.New(0, apierr.CodeNotAuthenticated, "refresh token not found")
	}
	return nil, apierr.NotImplemented("token refresh")
}

// Logout clears the local session. It never calls the backend.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.session.ClearAuthData(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	logger.Log.Info().Msg("Logged out")
	return nil
}

// CurrentUserProfile fetches the cached user's profile from the backend.
func (s *AuthService) CurrentUserProfile(ctx context.Context) (*models.User, error) {
	u, err := s.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID == "" {
		return nil, apierr.ErrNotAuthenticated
	}
	return s.GetUser(ctx, u.ID)
}

// GetUser fetches a profile.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	resp, err := s.api.Get(ctx, "/users/profile/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return s.cacheProfile(ctx, resp)
}

// UpdateProfile changes a profile.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*models.User, error) {
	resp, err := s.api.Put(ctx, "/users/profile/"+escape(id), update)
	if err != nil {
		return nil, err
	}
	return s.cacheProfile(ctx, resp)
}

// cacheProfile adapts a profile response and refreshes the cached user when
// it is the current one.
func (s *AuthService) cacheProfile(ctx context.Context, resp *apiclient.Response) (*models.User, error) {
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	user := adaptUser(unwrapUser(m))

	current, err := s.session.CurrentUser(ctx)
	if err == nil && current != nil && current.ID == user.ID {
		if err := s.session.SetCurrentUser(ctx, user); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to refresh cached user")
		}
	}
	return &user, nil
}

// GetUserStats fetches the profile summary.
func (s *AuthService) GetUserStats(ctx context.Context, id string) (*models.UserStats, error) {
	resp, err := s.api.Get(ctx, "/users/stats/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return entity[models.UserStats](resp, "stats")
}

// ChangePassword replaces the user's password.
func (s *AuthService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	_, err := s.api.Post(ctx, "/users/"+escape(id)+"/change-password", map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	})
	return err
}

// ForgotPassword is not offered by the backend.
func (s *AuthService) ForgotPassword(_ context.Context, _ string) error {
	return apierr.NotImplemented("password recovery")
}

// ResetPassword is not offered by the backend.
func (s *AuthService) ResetPassword(_ context.Context, _, _ string) error {
	return apierr.NotImplemented("password reset")
}

// CurrentUser returns the cached user, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.session.CurrentUser(ctx)
}

// AccessToken returns the stored access token.
func (s *AuthService) AccessToken(ctx context.Context) (string, error) {
	return s.session.AccessToken(ctx)
}

// RefreshToken returns the stored refresh token.
func (s *AuthService) RefreshToken(ctx context.Context) (string, error) {
	return s.session.RefreshToken(ctx)
}

// IsAuthenticated reports whether a token and user are stored.
func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	return s.session.IsAuthenticated(ctx)
}

// IsAdmin reports whether the cached user is an admin.
func (s *AuthService) IsAdmin(ctx context.Context) bool {
	return s.session.IsAdmin(ctx)
}
