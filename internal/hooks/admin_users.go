package hooks

import (
	"context"
	"slices"
	"time"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/export"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
)

// AdminAPI is the part of service.AdminService the hook uses.
type AdminAPI interface {
	ListUsers(ctx context.Context, f service.UserFilter) (*service.UserList, error)
	CreateUser(ctx context.Context, data service.CreateUserData) (*models.AdminUser, error)
	UpdateUser(ctx context.Context, id string, data service.UpdateUserData) (*models.AdminUser, error)
	DeleteUser(ctx context.Context, id string) error
	ToggleUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.AdminUser, error)
	ResetUserPassword(ctx context.Context, id, password string) error
	ExportUsers(ctx context.Context, f service.UserFilter) (*apiclient.Blob, error)
	GetSystemStats(ctx context.Context) (*models.SystemStats, error)
}

// AdminUsers holds the admin user listing and system stats. It needs a
// session but does not check the caller's role; the backend answers 403
// for non-admins.
type AdminUsers struct {
	state
	api   AdminAPI
	users UserSource

	filter      service.UserFilter
	list        []models.AdminUser
	pagination  models.Pagination
	systemStats *models.SystemStats
}

// NewAdminUsers creates the hook.
func NewAdminUsers(api AdminAPI, users UserSource, filter service.UserFilter) *AdminUsers {
	return &AdminUsers{
		api:        api,
		users:      users,
		filter:     filter,
		list:       []models.AdminUser{},
		pagination: defaultPagination,
	}
}

// Users returns a copy of the loaded page of users.
func (h *AdminUsers) Users() []models.AdminUser {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.list)
}

// Pagination returns the pagination of the loaded page.
func (h *AdminUsers) Pagination() models.Pagination {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pagination
}

// SystemStats returns the last loaded dashboard counters, or nil.
func (h *AdminUsers) SystemStats() *models.SystemStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.systemStats
}

// Load fetches the user page. Without a session it resets to the defaults
// and makes no call.
func (h *AdminUsers) Load(ctx context.Context) error {
	if sessionUser(ctx, h.users) == nil {
		h.mu.Lock()
		h.idleLocked()
		h.list = []models.AdminUser{}
		h.pagination = defaultPagination
		h.systemStats = nil
		h.mu.Unlock()
		return nil
	}

	h.begin()
	h.mu.Lock()
	f := h.filter
	h.mu.Unlock()

	list, err := h.api.ListUsers(ctx, f)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load users")
		h.failLocked(err)
		return err
	}
	h.list = list.Users
	h.pagination = list.Pagination
	h.succeedLocked()
	return nil
}

// LoadSystemStats fetches the dashboard counters. Failures are logged and
// leave the previous stats in place.
func (h *AdminUsers) LoadSystemStats(ctx context.Context) {
	if sessionUser(ctx, h.users) == nil {
		return
	}
	s, err := h.api.GetSystemStats(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to load system stats")
		return
	}
	h.mu.Lock()
	h.systemStats = s
	h.mu.Unlock()
}

// Refresh reloads users and system stats.
func (h *AdminUsers) Refresh(ctx context.Context) error {
	err := h.Load(ctx)
	h.LoadSystemStats(ctx)
	return err
}

// SetFilter replaces the filter and reloads the users.
func (h *AdminUsers) SetFilter(ctx context.Context, f service.UserFilter) error {
	h.mu.Lock()
	h.filter = f
	h.mu.Unlock()
	return h.Load(ctx)
}

// Create adds a user, then refreshes.
func (h *AdminUsers) Create(ctx context.Context, data service.CreateUserData) (*models.AdminUser, error) {
	if sessionUser(ctx, h.users) == nil {
		return nil, apierr.ErrNotAuthenticated
	}
	u, err := h.api.CreateUser(ctx, data)
	if err != nil {
		return nil, err
	}
	_ = h.Refresh(ctx)
	return u, nil
}

// Update edits a user, then refreshes.
func (h *AdminUsers) Update(ctx context.Context, id string, data service.UpdateUserData) (*models.AdminUser, error) {
	u, err := h.api.UpdateUser(ctx, id, data)
	if err != nil {
		return nil, err
	}
	_ = h.Refresh(ctx)
	return u, nil
}

// Delete removes a user, then refreshes.
func (h *AdminUsers) Delete(ctx context.Context, id string) error {
	if err := h.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	_ = h.Refresh(ctx)
	return nil
}

// ToggleStatus sets a user's status, then refreshes.
func (h *AdminUsers) ToggleStatus(ctx context.Context, id string, status models.UserStatus) (*models.AdminUser, error) {
	u, err := h.api.ToggleUserStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	_ = h.Refresh(ctx)
	return u, nil
}

// ResetPassword sets a new password. Nothing listed changes, so nothing
// is refetched.
func (h *AdminUsers) ResetPassword(ctx context.Context, id, password string) error {
	return h.api.ResetUserPassword(ctx, id, password)
}

// Export downloads the filtered users as CSV into path.
func (h *AdminUsers) Export(ctx context.Context, path string) (string, error) {
	h.mu.Lock()
	f := h.filter
	h.mu.Unlock()

	blob, err := h.api.ExportUsers(ctx, f)
	if err != nil {
		return "", err
	}
	return export.WriteBlob(path, export.Filename("users", "", "csv", time.Now()), blob)
}
