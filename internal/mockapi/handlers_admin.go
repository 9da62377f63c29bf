package mockapi

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// pageParams reads page and limit with the backend defaults.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	p := models.Pagination{
		Current: page,
		Limit:   limit,
		Total:   len(items),
		Pages:   (len(items) + limit - 1) / limit,
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, p
	}
	end := min(start+limit, len(items))
	return items[start:end], p
}

// adminView builds the admin projection of a user. Caller holds s.mu.
func (s *Server) adminView(rec *userRecord) models.AdminUser {
	status := models.StatusInactive
	if rec.active {
		status = models.StatusActive
	}
	count := 0
	for _, tx := range s.db.transactions {
		if tx.UserID == rec.user.ID {
			count++
		}
	}
	balance := decimal.Zero
	for _, acc := range s.db.accounts {
		if acc.UserID == rec.user.ID {
			balance = balance.Add(acc.Balance)
		}
	}
	return models.AdminUser{
		User:             rec.user,
		Status:           status,
		LastLogin:        rec.lastLogin,
		TransactionCount: &count,
		TotalBalance:     &balance,
	}
}

// filteredUsers applies q, role and status. Caller holds s.mu.
func (s *Server) filteredUsers(r *http.Request) []models.AdminUser {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	role := r.URL.Query().Get("role")
	status := r.URL.Query().Get("status")

	out := []models.AdminUser{}
	for _, id := range s.db.userOrder {
		u := s.adminView(s.db.users[id])
		if query != "" && !strings.Contains(strings.ToLower(u.Name), query) && !strings.Contains(u.Email, query) {
			continue
		}
		if role != "" && string(u.Role) != role {
			continue
		}
		if status != "" && string(u.Status) != status {
			continue
		}
		out = append(out, u)
	}
	return out
}

// listUsers answers with {data: [...isActive], meta}.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	s.mu.Lock()
	users := s.filteredUsers(r)
	s.mu.Unlock()

	items, p := paginate(users, page, limit)
	rows := make([]map[string]any, 0, len(items))
	for _, u := range items {
		m := toMap(u)
		delete(m, "status")
		m["isActive"] = u.Status == models.StatusActive
		rows = append(rows, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": rows,
		"meta": map[string]int{"page": p.Current, "limit": p.Limit, "total": p.Total},
	})
}

// userOr404 returns the record for the {id} param. Caller holds s.mu.
func (s *Server) userOr404(w http.ResponseWriter, r *http.Request) (*userRecord, bool) {
	rec, ok := s.db.users[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
	}
	return rec, ok
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.userOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.adminView(rec)})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Phone    string      `json:"phone"`
		Role     models.Role `json:"role"`
	}
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
	if body.Role == "" {
		body.Role = models.RoleNormal
	}
	if !body.Role.Valid() {
		fields["role"] = "role must be admin or normal"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.db.byEmail[strings.ToLower(body.Email)]; taken {
		writeError(w, http.StatusConflict, codeConflict, "email already registered")
		return
	}
	u := s.db.addUser(s.now(), body.Name, body.Email, body.Password, body.Role)
	rec := s.db.users[u.ID]
	rec.user.Phone = body.Phone
	s.db.addDefaultCategories(s.now(), u.ID)
	s.db.log(s.now(), currentUser(r), "create", "users")

	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"user": s.adminView(rec)}})
}

// updateUser answers with the bare user.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   *string            `json:"name"`
		Email  *string            `json:"email"`
		Phone  *string            `json:"phone"`
		Role   *models.Role       `json:"role"`
		Status *models.UserStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Role != nil && !body.Role.Valid() {
		writeValidation(w, map[string]string{"role": "role must be admin or normal"})
		return
	}
	if body.Status != nil && !body.Status.Valid() {
		writeValidation(w, map[string]string{"status": "status must be active or inactive"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.userOr404(w, r)
	if !ok {
		return
	}
	if body.Email != nil {
		email := strings.ToLower(*body.Email)
		if owner, taken := s.db.byEmail[email]; taken && owner != rec.user.ID {
			writeError(w, http.StatusConflict, codeConflict, "email already registered")
			return
		}
		delete(s.db.byEmail, rec.user.Email)
		rec.user.Email = email
		s.db.byEmail[email] = rec.user.ID
	}
	setIf(&rec.user.Name, body.Name)
	setIf(&rec.user.Phone, body.Phone)
	if body.Role != nil {
		rec.user.Role = *body.Role
	}
	if body.Status != nil {
		rec.active = *body.Status == models.StatusActive
	}
	rec.user.UpdatedAt = stamp(s.now())
	s.db.log(s.now(), currentUser(r), "update", "users")

	writeJSON(w, http.StatusOK, s.adminView(rec))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.userOr404(w, r)
	if !ok {
		return
	}
	if rec.user.ID == currentUser(r).ID {
		writeError(w, http.StatusBadRequest, codeValidation, "cannot delete your own account")
		return
	}
	s.db.removeUser(rec.user.ID)
	s.db.log(s.now(), currentUser(r), "delete", "users")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setUserStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.UserStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Status.Valid() {
		writeValidation(w, map[string]string{"status": "status must be active or inactive"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.userOr404(w, r)
	if !ok {
		return
	}
	rec.active = body.Status == models.StatusActive
	rec.user.UpdatedAt = stamp(s.now())
	s.db.log(s.now(), currentUser(r), "status:"+string(body.Status), "users")

	writeJSON(w, http.StatusOK, map[string]any{"user": s.adminView(rec)})
}

func (s *Server) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.Password) < 6 {
		writeValidation(w, map[string]string{"password": "password must have at least 6 characters"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.userOr404(w, r)
	if !ok {
		return
	}
	rec.passwordHash = hashPassword(body.Password)
	s.db.log(s.now(), currentUser(r), "reset-password", "users")
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}

func (s *Server) exportUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := s.filteredUsers(r)
	s.mu.Unlock()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"ID", "Name", "Email", "Role", "Status", "Created At"})
	for _, u := range users {
		_ = cw.Write([]string{u.ID, u.Name, u.Email, string(u.Role), string(u.Status), u.CreatedAt})
	}
	cw.Flush()

	writeBlob(w, "text/csv", "users.csv", buf.Bytes())
}

func (s *Server) userPermissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.userOr404(w, r)
	if !ok {
		return
	}
	out := []models.Permission{}
	for _, p := range s.db.permissions {
		for _, role := range p.Roles {
			if role == string(rec.user.Role) {
				out = append(out, p)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": out})
}

func (s *Server) systemStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := models.SystemStats{
		TotalUsers:        len(s.db.users),
		TotalTransactions: len(s.db.transactions),
		TotalRevenue:      decimal.Zero,
	}
	for _, rec := range s.db.users {
		if rec.active {
			stats.ActiveUsers++
		}
		if created, err := time.Parse(time.RFC3339, rec.user.CreatedAt); err == nil && !created.Before(monthStart) {
			stats.NewUsersThisMonth++
		}
	}
	for _, tx := range s.db.transactions {
		if tx.Type == models.TypeIncome {
			stats.TotalRevenue = stats.TotalRevenue.Add(tx.Amount)
		}
	}
	if stats.TotalUsers > 0 {
		stats.AverageTransactionsPerUser = decimal.NewFromInt(int64(stats.TotalTransactions)).
			Div(decimal.NewFromInt(int64(stats.TotalUsers))).Round(2)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"stats": stats}})
}

// activityLogs answers with {data, meta}, newest first.
func (s *Server) activityLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(r)

	s.mu.Lock()
	logs := []models.ActivityLog{}
	for i := len(s.db.logs) - 1; i >= 0; i-- {
		entry := s.db.logs[i]
		if v := q.Get("userId"); v != "" && entry.UserID != v {
			continue
		}
		if v := q.Get("action"); v != "" && entry.Action != v {
			continue
		}
		if v := q.Get("from"); v != "" && entry.CreatedAt[:10] < v {
			continue
		}
		if v := q.Get("to"); v != "" && entry.CreatedAt[:10] > v {
			continue
		}
		logs = append(logs, entry)
	}
	s.mu.Unlock()

	items, p := paginate(logs, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "meta": p})
}

func (s *Server) getMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"menu": s.db.menu})
}

func (s *Server) updateMenu(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []models.MenuItem `json:"items"`
	}
	if !decode(w, r, &body) {
		return
	}
	for _, item := range body.Items {
		if item.ID == "" || item.Label == "" {
			writeValidation(w, map[string]string{"items": "every item needs an id and a label"})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.menu = body.Items
	s.db.log(s.now(), currentUser(r), "update", "menu")
	writeJSON(w, http.StatusOK, map[string]any{"data": s.db.menu})
}

func (s *Server) reorderMenu(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemIDs []string `json:"itemIds"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	position := make(map[string]int, len(body.ItemIDs))
	for i, id := range body.ItemIDs {
		position[id] = i + 1
	}
	for i := range s.db.menu {
		order, ok := position[s.db.menu[i].ID]
		if !ok {
			writeValidation(w, map[string]string{"itemIds": "unknown or missing menu item " + s.db.menu[i].ID})
			return
		}
		s.db.menu[i].Order = order
	}
	slices.SortStableFunc(s.db.menu, func(a, b models.MenuItem) int { return cmp.Compare(a.Order, b.Order) })
	writeJSON(w, http.StatusOK, map[string]string{"message": "menu reordered"})
}

func (s *Server) listPermissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.db.permissions)
}

func (s *Server) updatePermission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Roles []string `json:"roles"`
	}
	if !decode(w, r, &body) {
		return
	}
	for _, role := range body.Roles {
		if !models.Role(role).Valid() {
			writeValidation(w, map[string]string{"roles": "unknown role " + role})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	for i := range s.db.permissions {
		if s.db.permissions[i].ID == id {
			s.db.permissions[i].Roles = body.Roles
			s.db.log(s.now(), currentUser(r), "update", "permissions")
			writeJSON(w, http.StatusOK, map[string]any{"permission": s.db.permissions[i]})
			return
		}
	}
	writeError(w, http.StatusNotFound, codeNotFound, "permission not found")
}
