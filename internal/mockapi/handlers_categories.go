package mockapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/models"
)

func (s *Server) categoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.listCategories)
	r.Post("/", s.createCategory)
	r.Get("/defaults", s.defaultCategoryList)
	r.Post("/import-defaults", s.importDefaultCategories)
	r.Put("/reorder", s.reorderCategories)
	r.Get("/{id}", s.getCategory)
	r.Put("/{id}", s.updateCategory)
	r.Delete("/{id}", s.deleteCategory)
	r.Get("/{id}/stats", s.categoryStats)
	return r
}

// categoriesOf lists one user's categories in display order. Caller holds s.mu.
func (s *Server) categoriesOf(userID string) []models.Category {
	out := []models.Category{}
	for _, id := range s.db.categoryOrder {
		if c := s.db.categories[id]; c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	s.mu.Lock()
	cats := s.categoriesOf(currentUser(r).ID)
	s.mu.Unlock()

	cats = slices.DeleteFunc(cats, func(c models.Category) bool {
		return (typ != "" && string(c.Type) != typ) ||
			(search != "" && !strings.Contains(strings.ToLower(c.Name), search))
	})
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) categoryOr404(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	c, ok := s.db.categories[chi.URLParam(r, "id")]
	if !ok || c.UserID != currentUser(r).ID {
		writeError(w, http.StatusNotFound, codeNotFound, "category not found")
		return nil, false
	}
	return c, true
}

// hasCategory reports whether userID already owns name/type. Caller holds s.mu.
func (s *Server) hasCategory(userID, name string, typ models.CategoryType) bool {
	for _, c := range s.db.categories {
		if c.UserID == userID && c.Type == typ && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categoryOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": c})
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string              `json:"name"`
		Type     models.CategoryType `json:"type"`
		Color    string              `json:"color"`
		Icon     string              `json:"icon"`
		ParentID string              `json:"parentId"`
	}
	if !decode(w, r, &body) {
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(body.Name) == "" {
		fields["name"] = "name is required"
	}
	if !body.Type.Valid() {
		fields["type"] = "type must be income or expense"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	userID := currentUser(r).ID
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCategory(userID, body.Name, body.Type) {
		writeError(w, http.StatusConflict, codeConflict, "category already exists")
		return
	}
	c := &models.Category{
		ID:        newID(),
		UserID:    userID,
		Name:      strings.TrimSpace(body.Name),
		Type:      body.Type,
		Color:     body.Color,
		Icon:      body.Icon,
		ParentID:  body.ParentID,
		CreatedAt: stamp(s.now()),
	}
	s.db.categories[c.ID] = c
	s.db.categoryOrder = append(s.db.categoryOrder, c.ID)
	s.db.log(s.now(), currentUser(r), "create", "categories")

	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"category": c}})
}

// updateCategory answers with the bare category.
func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     *string `json:"name"`
		Color    *string `json:"color"`
		Icon     *string `json:"icon"`
		ParentID *string `json:"parentId"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		writeValidation(w, map[string]string{"name": "name is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categoryOr404(w, r)
	if !ok {
		return
	}
	setIf(&c.Name, body.Name)
	setIf(&c.Color, body.Color)
	setIf(&c.Icon, body.Icon)
	setIf(&c.ParentID, body.ParentID)
	c.UpdatedAt = stamp(s.now())
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categoryOr404(w, r)
	if !ok {
		return
	}
	delete(s.db.categories, c.ID)
	s.db.categoryOrder = without(s.db.categoryOrder, c.ID)
	s.db.log(s.now(), currentUser(r), "delete", "categories")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) defaultCategoryList(w http.ResponseWriter, r *http.Request) {
	out := make([]models.Category, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		out = append(out, models.Category{
			ID:    "default-" + strings.ToLower(c.name),
			Name:  c.name,
			Type:  c.typ,
			Color: c.color,
			Icon:  c.icon,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// importDefaultCategories adds the defaults the user is missing.
func (s *Server) importDefaultCategories(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	added := []models.Category{}
	for _, d := range defaultCategories {
		if s.hasCategory(userID, d.name, d.typ) {
			continue
		}
		c := &models.Category{
			ID:        newID(),
			UserID:    userID,
			Name:      d.name,
			Type:      d.typ,
			Color:     d.color,
			Icon:      d.icon,
			CreatedAt: stamp(s.now()),
		}
		s.db.categories[c.ID] = c
		s.db.categoryOrder = append(s.db.categoryOrder, c.ID)
		added = append(added, *c)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"categories": added})
}

// reorderCategories moves the listed categories to the front, in order.
func (s *Server) reorderCategories(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CategoryIDs []string `json:"categoryIds"`
	}
	if !decode(w, r, &body) {
		return
	}

	userID := currentUser(r).ID
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range body.CategoryIDs {
		if c, ok := s.db.categories[id]; !ok || c.UserID != userID {
			writeValidation(w, map[string]string{"categoryIds": "unknown category " + id})
			return
		}
	}

	rest := slices.DeleteFunc(slices.Clone(s.db.categoryOrder), func(id string) bool {
		return slices.Contains(body.CategoryIDs, id)
	})
	s.db.categoryOrder = append(slices.Clone(body.CategoryIDs), rest...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "categories reordered"})
}

func (s *Server) categoryStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categoryOr404(w, r)
	if !ok {
		return
	}

	stats := models.CategoryStats{TotalAmount: decimal.Zero}
	months := map[string]bool{}
	for _, tx := range s.db.transactionsOf(c.UserID) {
		if tx.Type != c.Type || !strings.EqualFold(tx.Category, c.Name) {
			continue
		}
		stats.TransactionCount++
		stats.TotalAmount = stats.TotalAmount.Add(tx.Amount)
		months[tx.Date[:len("2006-01")]] = true
		if tx.Date > stats.LastUsed {
			stats.LastUsed = tx.Date
		}
	}
	if len(months) > 0 {
		avg := stats.TotalAmount.Div(decimal.NewFromInt(int64(len(months)))).Round(2)
		stats.MonthlyAverage = &avg
	}
	if stats.LastUsed != "" {
		if t, err := time.Parse(time.DateOnly, stats.LastUsed); err == nil {
			stats.LastUsed = stamp(t)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"stats": stats}})
}
