package service

import (
	"context"
	"net/url"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/models"
)

// CreateUserData is an admin-created account.
type CreateUserData struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Phone    string      `json:"phone,omitempty"`
	Role     models.Role `json:"role,omitempty"`
}

// UpdateUserData is a partial admin edit. Nil fields are left untouched.
type UpdateUserData struct {
	Name   *string            `json:"name,omitempty"`
	Email  *string            `json:"email,omitempty"`
	Phone  *string            `json:"phone,omitempty"`
	Role   *models.Role       `json:"role,omitempty"`
	Status *models.UserStatus `json:"status,omitempty"`
}

// AdminService covers user management, menu, permissions and audit logs.
type AdminService struct {
	api API
}

// NewAdminService creates an AdminService.
func NewAdminService(api API) *AdminService {
	return &AdminService{api: api}
}

// ListUsers returns one page of users.
func (s *AdminService) ListUsers(ctx context.Context, f UserFilter) (*UserList, error) {
	resp, err := s.api.Get(ctx, "/users", f.Values())
	if err != nil {
		return nil, err
	}
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	list := adaptUserList(m)
	return &list, nil
}

// GetUserDetails fetches one user.
func (s *AdminService) GetUserDetails(ctx context.Context, id string) (*models.AdminUser, error) {
	resp, err := s.api.Get(ctx, "/users/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return adminUser(resp)
}

// CreateUser creates a user.
func (s *AdminService) CreateUser(ctx context.Context, data CreateUserData) (*models.AdminUser, error) {
	resp, err := s.api.Post(ctx, "/users", data)
	if err != nil {
		return nil, err
	}
	return adminUser(resp)
}

// UpdateUser edits a user.
func (s *AdminService) UpdateUser(ctx context.Context, id string, data UpdateUserData) (*models.AdminUser, error) {
	resp, err := s.api.Put(ctx, "/users/"+escape(id), data)
	if err != nil {
		return nil, err
	}
	return adminUser(resp)
}

// DeleteUser removes a user.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, "/users/"+escape(id))
	return err
}

// ToggleUserStatus activates or deactivates a user.
func (s *AdminService) ToggleUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.AdminUser, error) {
	resp, err := s.api.Put(ctx, "/users/"+escape(id)+"/status", map[string]models.UserStatus{"status": status})
	if err != nil {
		return nil, err
	}
	return adminUser(resp)
}

// ResetUserPassword sets a new password for a user.
func (s *AdminService) ResetUserPassword(ctx context.Context, id, password string) error {
	_, err := s.api.Post(ctx, "/users/"+escape(id)+"/reset-password", map[string]string{"password": password})
	return err
}

// ExportUsers downloads the user listing. Only role and status apply.
func (s *AdminService) ExportUsers(ctx context.Context, f UserFilter) (*apiclient.Blob, error) {
	return s.api.GetBlob(ctx, "/users/export", f.ExportValues())
}

// GetSystemStats fetches the dashboard summary.
func (s *AdminService) GetSystemStats(ctx context.Context) (*models.SystemStats, error) {
	resp, err := s.api.Get(ctx, "/admin/stats", nil)
	if err != nil {
		return nil, err
	}
	return entity[models.SystemStats](resp, "stats")
}

// GetMenu fetches the navigation tree.
func (s *AdminService) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	resp, err := s.api.Get(ctx, "/menu", nil)
	if err != nil {
		return nil, err
	}
	return list[models.MenuItem](resp, "menu", "data")
}

// UpdateMenu replaces the navigation tree.
func (s *AdminService) UpdateMenu(ctx context.Context, items []models.MenuItem) ([]models.MenuItem, error) {
	resp, err := s.api.Put(ctx, "/menu", map[string][]models.MenuItem{"items": items})
	if err != nil {
		return nil, err
	}
	return list[models.MenuItem](resp, "menu", "data")
}

// ReorderMenu sets the order of top-level items.
func (s *AdminService) ReorderMenu(ctx context.Context, itemIDs []string) error {
	_, err := s.api.Put(ctx, "/menu/reorder", map[string][]string{"itemIds": itemIDs})
	return err
}

// GetPermissions lists every permission.
func (s *AdminService) GetPermissions(ctx context.Context) ([]models.Permission, error) {
	resp, err := s.api.Get(ctx, "/permissions", nil)
	if err != nil {
		return nil, err
	}
	return list[models.Permission](resp, "permissions", "data")
}

// UpdatePermission sets the roles granted a permission.
func (s *AdminService) UpdatePermission(ctx context.Context, id string, roles []string) (*models.Permission, error) {
	resp, err := s.api.Put(ctx, "/permissions/"+escape(id), map[string][]string{"roles": roles})
	if err != nil {
		return nil, err
	}
	return entity[models.Permission](resp, "permission")
}

// GetUserPermissions lists the permissions a user holds.
func (s *AdminService) GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	resp, err := s.api.Get(ctx, "/users/"+escape(userID)+"/permissions", nil)
	if err != nil {
		return nil, err
	}
	return list[models.Permission](resp, "permissions", "data")
}

// CheckPermission asks whether the current user may act on a resource.
func (s *AdminService) CheckPermission(ctx context.Context, resource, action string) (bool, error) {
	q := url.Values{}
	addParam(q, "resource", resource)
	addParam(q, "action", action)

	resp, err := s.api.Get(ctx, "/permissions/check", q)
	if err != nil {
		return false, err
	}
	m, err := object(resp)
	if err != nil {
		return false, err
	}
	return truthy(m["hasPermission"]), nil
}

// GetActivityLogs returns one page of audit logs.
// logs ← logs | data | []; pagination ← pagination | meta.
func (s *AdminService) GetActivityLogs(ctx context.Context, f ActivityLogFilter) (*models.ActivityLogPage, error) {
	resp, err := s.api.Get(ctx, "/admin/activity-logs", f.Values())
	if err != nil {
		return nil, err
	}
	m, err := object(resp)
	if err != nil {
		return nil, err
	}

	page := &models.ActivityLogPage{Logs: []models.ActivityLog{}}
	if raw := firstTruthy(m, "logs", "data"); raw != nil {
		if err := remarshal(raw, &page.Logs); err != nil {
			return nil, err
		}
	}
	p := objectAt(m, "pagination")
	if p == nil {
		p = objectAt(m, "meta")
	}
	page.Pagination = adaptPagination(p)
	return page, nil
}

func adminUser(resp *apiclient.Response) (*models.AdminUser, error) {
	m, err := object(resp)
	if err != nil {
		return nil, err
	}
	u := adaptAdminUser(unwrapUser(m))
	return &u, nil
}
