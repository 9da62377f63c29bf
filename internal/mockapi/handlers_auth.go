package mockapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/yelinaung/finadm/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Age      *int   `json:"age"`
}

// userJSON renders a user with the id under idKey.
func userJSON(u models.User, idKey string) map[string]any {
	m := toMap(u)
	if idKey != "id" {
		delete(m, "id")
		m[idKey] = u.ID
	}
	return m
}

// issueSession creates a token pair. Callers must not hold s.mu.
func (s *Server) issueSession(u models.User) (access, refresh string, err error) {
	access, err = s.issueAccessToken(u)
	if err != nil {
		return "", "", err
	}
	refresh = newID()

	s.mu.Lock()
	s.db.refreshTokens[refresh] = u.ID
	s.mu.Unlock()
	return access, refresh, nil
}

// login answers with the "token" and "userId" spellings.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	rec, ok := s.db.users[s.db.byEmail[strings.ToLower(strings.TrimSpace(body.Email))]]
	var (
		u      models.User
		active bool
		hash   []byte
	)
	if ok {
		u, active, hash = rec.user, rec.active, rec.passwordHash
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil {
		writeFlatError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
		return
	}
	if !active {
		writeFlatError(w, http.StatusForbidden, codeForbidden, "account is inactive")
		return
	}

	access, refresh, err := s.issueSession(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	s.mu.Lock()
	if rec, ok := s.db.users[u.ID]; ok {
		rec.lastLogin = stamp(s.now())
	}
	s.db.log(s.now(), &u, "login", "auth")
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"token":        access,
		"refreshToken": refresh,
		"user":         userJSON(u, "userId"),
	})
}

// register answers inside a data envelope with "accessToken".
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body registration
	if !decode(w, r, &body) {
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(body.Name) == "" {
		fields["name"] = "name is required"
	}
	if !strings.Contains(body.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if len(body.Password) < 6 {
		fields["password"] = "password must have at least 6 characters"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	s.mu.Lock()
	if _, taken := s.db.byEmail[strings.ToLower(body.Email)]; taken {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, codeConflict, "email already registered")
		return
	}
	u := s.db.addUser(s.now(), body.Name, body.Email, body.Password, models.RoleNormal)
	s.db.users[u.ID].user.Phone = body.Phone
	s.db.users[u.ID].user.Age = body.Age
	s.db.addDefaultCategories(s.now(), u.ID)
	u = s.db.users[u.ID].user
	s.mu.Unlock()

	access, refresh, err := s.issueSession(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"accessToken":  access,
			"refreshToken": refresh,
			"user":         userJSON(u, "id"),
		},
	})
}

// refresh rotates the refresh token.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	userID, ok := s.db.refreshTokens[body.RefreshToken]
	if ok {
		delete(s.db.refreshTokens, body.RefreshToken)
	}
	rec, exists := s.db.users[userID]
	var u models.User
	if exists {
		u = rec.user
	}
	s.mu.Unlock()

	if !ok || !exists {
		writeError(w, http.StatusUnauthorized, codeInvalidToken, "refresh token is invalid or expired")
		return
	}

	access, refresh, err := s.issueSession(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]string{"accessToken": access, "refreshToken": refresh},
	})
}

// ownerOrAdmin reports whether the caller may act on user id.
func ownerOrAdmin(w http.ResponseWriter, r *http.Request, id string) bool {
	u := currentUser(r)
	if u.ID == id || u.IsAdmin() {
		return true
	}
	writeError(w, http.StatusForbidden, codeForbidden, "cannot access another user's data")
	return false
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !ownerOrAdmin(w, r, id) {
		return
	}

	s.mu.Lock()
	rec, ok := s.db.users[id]
	var u models.User
	if ok {
		u = rec.user
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": userJSON(u, "id")}})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !ownerOrAdmin(w, r, id) {
		return
	}

	var body struct {
		Name          *string          `json:"name"`
		Email         *string          `json:"email"`
		Phone         *string          `json:"phone"`
		Avatar        *string          `json:"avatar"`
		Age           *int             `json:"age"`
		Occupation    *string          `json:"occupation"`
		MonthlyIncome *decimal.Decimal `json:"monthlyIncome"`
		SpendingLimit *decimal.Decimal `json:"spendingLimit"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	rec, ok := s.db.users[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}
	if body.Email != nil {
		email := strings.ToLower(*body.Email)
		if owner, taken := s.db.byEmail[email]; taken && owner != id {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, codeConflict, "email already registered")
			return
		}
		delete(s.db.byEmail, rec.user.Email)
		rec.user.Email = email
		s.db.byEmail[email] = id
	}
	setIf(&rec.user.Name, body.Name)
	setIf(&rec.user.Phone, body.Phone)
	setIf(&rec.user.Avatar, body.Avatar)
	setIf(&rec.user.Occupation, body.Occupation)
	if body.Age != nil {
		rec.user.Age = body.Age
	}
	if body.MonthlyIncome != nil {
		rec.user.MonthlyIncome = body.MonthlyIncome
	}
	if body.SpendingLimit != nil {
		rec.user.SpendingLimit = body.SpendingLimit
	}
	rec.user.UpdatedAt = stamp(s.now())
	u := rec.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"user": userJSON(u, "id")})
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !ownerOrAdmin(w, r, id) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.db.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}

	categories := map[string]bool{}
	txs := s.db.transactionsOf(id)
	for _, tx := range txs {
		categories[tx.Category] = true
	}
	accounts := 0
	for _, acc := range s.db.accounts {
		if acc.UserID == id {
			accounts++
		}
	}

	income := decimal.Zero
	if rec.user.MonthlyIncome != nil {
		income = *rec.user.MonthlyIncome
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": models.UserStats{
		MemberSince:       rec.user.CreatedAt,
		MonthlyIncome:     income,
		ProfileCompletion: profileCompletion(rec.user),
		TransactionCount:  len(txs),
		CategoriesUsed:    len(categories),
		AccountsCount:     accounts,
	}})
}

func profileCompletion(u models.User) int {
	filled := 0
	for _, ok := range []bool{
		u.Name != "", u.Email != "", u.Phone != "", u.Avatar != "",
		u.Age != nil, u.Occupation != "", u.MonthlyIncome != nil, u.SpendingLimit != nil,
	} {
		if ok {
			filled++
		}
	}
	return filled * 100 / 8
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if currentUser(r).ID != id {
		writeError(w, http.StatusForbidden, codeForbidden, "cannot change another user's password")
		return
	}

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.NewPassword) < 6 {
		writeValidation(w, map[string]string{"newPassword": "password must have at least 6 characters"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.db.users[id]
	if bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(body.OldPassword)) != nil {
		writeFlatError(w, http.StatusBadRequest, codeInvalidCredentials, "current password is incorrect")
		return
	}
	rec.passwordHash = hashPassword(body.NewPassword)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	action := r.URL.Query().Get("action")
	role := string(currentUser(r).Role)

	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := false
	for _, p := range s.db.permissions {
		if p.Resource == resource && p.Action == action {
			for _, granted := range p.Roles {
				if granted == role {
					allowed = true
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasPermission": allowed})
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
