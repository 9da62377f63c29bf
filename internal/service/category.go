package service

import (
	"context"

	"gitlab.com/yelinaung/finadm/internal/models"
)

// CreateCategoryData is a new category.
type CreateCategoryData struct {
	Name     string              `json:"name"`
	Type     models.CategoryType `json:"type"`
	Color    string              `json:"color,omitempty"`
	Icon     string              `json:"icon,omitempty"`
	ParentID string              `json:"parentId,omitempty"`
}

// UpdateCategoryData is a partial edit. Nil fields are left untouched.
type UpdateCategoryData struct {
	Name     *string `json:"name,omitempty"`
	Color    *string `json:"color,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

// CategoryService covers the category endpoints.
type CategoryService struct {
	api API
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(api API) *CategoryService {
	return &CategoryService{api: api}
}

// List returns the user's categories.
func (s *CategoryService) List(ctx context.Context, f CategoryFilter) ([]models.Category, error) {
	resp, err := s.api.Get(ctx, "/categories", f.Values())
	if err != nil {
		return nil, err
	}
	return list[models.Category](resp, "categories", "data")
}

// GetByID fetches one category.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*models.Category, error) {
	resp, err := s.api.Get(ctx, "/categories/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return entity[models.Category](resp, "category")
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, data CreateCategoryData) (*models.Category, error) {
	resp, err := s.api.Post(ctx, "/categories", data)
	if err != nil {
		return nil, err
	}
	return entity[models.Category](resp, "category")
}

// Update edits a category.
func (s *CategoryService) Update(ctx context.Context, id string, data UpdateCategoryData) (*models.Category, error) {
	resp, err := s.api.Put(ctx, "/categories/"+escape(id), data)
	if err != nil {
		return nil, err
	}
	return entity[models.Category](resp, "category")
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, "/categories/"+escape(id))
	return err
}

// GetStats summarizes usage of one category.
func (s *CategoryService) GetStats(ctx context.Context, id string) (*models.CategoryStats, error) {
	resp, err := s.api.Get(ctx, "/categories/"+escape(id)+"/stats", nil)
	if err != nil {
		return nil, err
	}
	return entity[models.CategoryStats](resp, "stats")
}

// GetDefaults lists the built-in categories.
func (s *CategoryService) GetDefaults(ctx context.Context) ([]models.Category, error) {
	resp, err := s.api.Get(ctx, "/categories/defaults", nil)
	if err != nil {
		return nil, err
	}
	return list[models.Category](resp, "categories", "data")
}

// ImportDefaults copies the built-in categories to the user.
func (s *CategoryService) ImportDefaults(ctx context.Context) ([]models.Category, error) {
	resp, err := s.api.Post(ctx, "/categories/import-defaults", nil)
	if err != nil {
		return nil, err
	}
	return list[models.Category](resp, "categories", "data")
}

// Reorder sets the display order.
func (s *CategoryService) Reorder(ctx context.Context, categoryIDs []string) error {
	_, err := s.api.Put(ctx, "/categories/reorder", map[string][]string{"categoryIds": categoryIDs})
	return err
}
