// Package mockapi is an in-process FinAdm backend for demos and tests. It
// keeps everything in memory and deliberately varies its response envelopes.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// Seeded credentials.
const (
	AdminEmail    = "admin@fin.local"
	AdminPassword = "admin123"
	UserEmail     = "user@fin.local"
	UserPassword  = "user123"
)

// DefaultAccessTTL is the lifetime of issued access tokens.
const DefaultAccessTTL = 15 * time.Minute

// Options configures a Server.
type Options struct {
	Secret    []byte
	AccessTTL time.Duration
	// Delay is applied per request by Transport.
	Delay time.Duration
	Now   func() time.Time
}

// Server is the mock backend.
type Server struct {
	secret    []byte
	accessTTL time.Duration
	delay     time.Duration
	now       func() time.Time

	mu   sync.Mutex
	db   *store
	gen  int
	hits map[string]int

	router chi.Router
}

type ctxKey string

const userKey ctxKey = "user"

// New creates a seeded Server.
func New(opts Options) *Server {
	s := &Server{
		secret:    opts.Secret,
		accessTTL: opts.AccessTTL,
		delay:     opts.Delay,
		now:       opts.Now,
		hits:      make(map[string]int),
	}
	if len(s.secret) == 0 {
		s.secret = []byte("finadm-mock-secret")
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.db = seed(s.now())
	s.router = s.routes()
	return s
}

// Handler serves the API under /api and a Frankfurter-style rate feed
// under /fx.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hits returns how often a route was served, keyed as "METHOD /api/pattern".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// ResetHits zeroes every route counter.
func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
}

// RevokeRefreshTokens invalidates every refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.refreshTokens = make(map[string]string)
}

// UserID returns the id of a seeded or registered user.
func (s *Server) UserID(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.byEmail[strings.ToLower(email)]
}

// Transport serves requests in-process, sleeping Delay first.
func (s *Server) Transport() http.RoundTripper {
	return &transport{handler: s.router, delay: s.delay}
}

type transport struct {
	handler http.Handler
	delay   time.Duration
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.delay > 0 {
		timer := time.NewTimer(t.delay)
		select {
		case <-timer.C:
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}
	}

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	if req.Body != nil {
		_ = req.Body.Close()
	}

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countHits)

	r.Get("/fx/latest", s.latestRates)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/login", s.login)
		r.Post("/users/register", s.register)
		r.Post("/auth/refresh", s.refresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/users/profile/{id}", s.getProfile)
			r.Put("/users/profile/{id}", s.updateProfile)
			r.Get("/users/stats/{id}", s.userStats)
			r.Post("/users/{id}/change-password", s.changePassword)
			r.Get("/permissions/check", s.checkPermission)

			r.Mount("/transactions", s.transactionRoutes())
			r.Mount("/accounts", s.accountRoutes())
			r.Mount("/categories", s.categoryRoutes())
			r.Mount("/reports", s.reportRoutes())
			r.Mount("/settings", s.settingsRoutes())

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/users", s.listUsers)
				r.Post("/users", s.createUser)
				r.Get("/users/export", s.exportUsers)
				r.Get("/users/{id}", s.getUser)
				r.Put("/users/{id}", s.updateUser)
				r.Delete("/users/{id}", s.deleteUser)
				r.Put("/users/{id}/status", s.setUserStatus)
				r.Post("/users/{id}/reset-password", s.resetUserPassword)
				r.Get("/users/{id}/permissions", s.userPermissions)

				r.Get("/admin/stats", s.systemStats)
				r.Get("/admin/activity-logs", s.activityLogs)

				r.Get("/menu", s.getMenu)
				r.Put("/menu", s.updateMenu)
				r.Put("/menu/reorder", s.reorderMenu)

				r.Get("/permissions", s.listPermissions)
				r.Put("/permissions/{id}", s.updatePermission)
			})
		})
	})

	return r
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		if len(pattern) > 1 {
			pattern = strings.TrimSuffix(pattern, "/")
		}
		s.mu.Lock()
		s.hits[r.Method+" "+pattern]++
		s.mu.Unlock()
	})
}

type accessClaims struct {
	Role string `json:"role"`
	Gen  int    `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) issueAccessToken(u models.User) (string, error) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	now := s.now()
	claims := accessClaims{
		Role: string(u.Role),
		Gen:  gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *Server) parseAccessToken(raw string) (string, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	if claims.Gen != gen {
		return "", errors.New("token revoked")
	}
	return claims.Subject, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.parseAccessToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
			return
		}

		s.mu.Lock()
		rec, ok := s.db.users[userID]
		var u models.User
		if ok {
			u = rec.user
		}
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "user no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r); !u.IsAdmin() {
			logger.Log.Debug().Str("path", r.URL.Path).Msg("mockapi: admin route refused")
			writeError(w, http.StatusForbidden, codeForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *models.User {
	u, ok := r.Context().Value(userKey).(models.User)
	if !ok {
		return nil
	}
	return &u
}
