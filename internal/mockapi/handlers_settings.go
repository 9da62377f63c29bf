package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/yelinaung/finadm/internal/models"
)

func (s *Server) settingsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.getSettings)
	r.Put("/", s.updateSettings)
	r.Put("/theme", s.updateTheme)
	r.Put("/notifications", s.updateNotifications)
	r.Put("/privacy", s.updatePrivacy)
	r.Post("/reset", s.resetSettings)
	r.Get("/export-data", s.exportUserData)
	r.Post("/delete-account", s.deleteOwnAccount)
	return r
}

// settingsOf returns the caller's settings, creating defaults. Caller holds s.mu.
func (s *Server) settingsOf(r *http.Request) *models.UserSettings {
	id := currentUser(r).ID
	st, ok := s.db.settings[id]
	if !ok {
		st = defaultSettings(id, s.now())
		s.db.settings[id] = st
	}
	return st
}

// getSettings answers with {data: {settings}}.
func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"settings": s.settingsOf(r)}})
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var body models.SettingsUpdate
	if !decode(w, r, &body) {
		return
	}
	if body.Theme != nil && !body.Theme.Valid() {
		writeValidation(w, map[string]string{"theme": "theme must be light, dark or auto"})
		return
	}
	if body.Currency != nil && len(strings.TrimSpace(*body.Currency)) != 3 {
		writeValidation(w, map[string]string{"currency": "currency must be a 3-letter code"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.settingsOf(r)
	if body.Theme != nil {
		st.Theme = *body.Theme
	}
	setIf(&st.Language, body.Language)
	if body.Currency != nil {
		st.Currency = strings.ToUpper(strings.TrimSpace(*body.Currency))
	}
	if body.Notifications != nil {
		st.Notifications = *body.Notifications
	}
	if body.Privacy != nil {
		st.Privacy = *body.Privacy
	}
	st.UpdatedAt = stamp(s.now())
	writeJSON(w, http.StatusOK, map[string]any{"settings": st})
}

func (s *Server) updateTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme models.Theme `json:"theme"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Theme.Valid() {
		writeValidation(w, map[string]string{"theme": "theme must be light, dark or auto"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.settingsOf(r)
	st.Theme = body.Theme
	st.UpdatedAt = stamp(s.now())
	writeJSON(w, http.StatusOK, map[string]any{"theme": st.Theme})
}

func (s *Server) updateNotifications(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notifications models.NotificationSettings `json:"notifications"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.settingsOf(r)
	st.Notifications = body.Notifications
	st.UpdatedAt = stamp(s.now())
	writeJSON(w, http.StatusOK, map[string]any{"notifications": st.Notifications})
}

func (s *Server) updatePrivacy(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Privacy models.PrivacySettings `json:"privacy"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.settingsOf(r)
	st.Privacy = body.Privacy
	st.UpdatedAt = stamp(s.now())
	writeJSON(w, http.StatusOK, map[string]any{"privacy": st.Privacy})
}

// resetSettings answers with the bare settings.
func (s *Server) resetSettings(w http.ResponseWriter, r *http.Request) {
	id := currentUser(r).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	st := defaultSettings(id, s.now())
	s.db.settings[id] = st
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) exportUserData(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	s.mu.Lock()
	payload := map[string]any{
		"user":         u,
		"settings":     s.settingsOf(r),
		"accounts":     s.accountsOf(u.ID),
		"categories":   s.categoriesOf(u.ID),
		"transactions": s.db.transactionsOf(u.ID),
		"exportedAt":   stamp(s.now()),
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeBlob(w, "application/json", "finadm-data.json", data)
}

func (s *Server) deleteOwnAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	id := currentUser(r).ID
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.db.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}
	if bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(body.Password)) != nil {
		writeFlatError(w, http.StatusBadRequest, codeInvalidCredentials, "password is incorrect")
		return
	}
	s.db.removeUser(id)
	for accID, acc := range s.db.accounts {
		if acc.UserID == id {
			delete(s.db.accounts, accID)
			s.db.accountOrder = without(s.db.accountOrder, accID)
		}
	}
	for catID, c := range s.db.categories {
		if c.UserID == id {
			delete(s.db.categories, catID)
			s.db.categoryOrder = without(s.db.categoryOrder, catID)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
