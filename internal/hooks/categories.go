package hooks

import (
	"context"
	"slices"

	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
)

// CategoryAPI is the part of service.CategoryService the hook uses.
type CategoryAPI interface {
	List(ctx context.Context, f service.CategoryFilter) ([]models.Category, error)
	Create(ctx context.Context, data service.CreateCategoryData) (*models.Category, error)
	Update(ctx context.Context, id string, data service.UpdateCategoryData) (*models.Category, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, categoryIDs []string) error
	ImportDefaults(ctx context.Context) ([]models.Category, error)
}

// Categories holds the category list.
type Categories struct {
	state
	api   CategoryAPI
	users UserSource

	filter     service.CategoryFilter
	categories []models.Category
}

// NewCategories creates the hook.
func NewCategories(api CategoryAPI, users UserSource, filter service.CategoryFilter) *Categories {
	return &Categories{api: api, users: users, filter: filter, categories: []models.Category{}}
}

func (h *Categories) Categories() []models.Category {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.categories)
}

// Load fetches the filtered list.
func (h *Categories) Load(ctx context.Context) error {
	if sessionUser(ctx, h.users) == nil {
		h.mu.Lock()
		h.idleLocked()
		h.categories = []models.Category{}
		h.mu.Unlock()
		return nil
	}

	h.begin()
	h.mu.Lock()
	f := h.filter
	h.mu.Unlock()

	cats, err := h.api.List(ctx, f)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load categories")
		h.failLocked(err)
		return err
	}
	h.categories = cats
	h.succeedLocked()
	return nil
}

// Refresh is Load.
func (h *Categories) Refresh(ctx context.Context) error {
	return h.Load(ctx)
}

// SetFilter replaces the filter and reloads.
func (h *Categories) SetFilter(ctx context.Context, f service.CategoryFilter) error {
	h.mu.Lock()
	h.filter = f
	h.mu.Unlock()
	return h.Load(ctx)
}

// Create adds a category, then refetches.
func (h *Categories) Create(ctx context.Context, data service.CreateCategoryData) (*models.Category, error) {
	if sessionUser(ctx, h.users) == nil {
		return nil, apierr.ErrNotAuthenticated
	}
	cat, err := h.api.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	_ = h.Load(ctx)
	return cat, nil
}

// Update edits a category, then refetches.
func (h *Categories) Update(ctx context.Context, id string, data service.UpdateCategoryData) (*models.Category, error) {
	cat, err := h.api.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	_ = h.Load(ctx)
	return cat, nil
}

// Delete removes a category, then refetches.
func (h *Categories) Delete(ctx context.Context, id string) error {
	if err := h.api.Delete(ctx, id); err != nil {
		return err
	}
	_ = h.Load(ctx)
	return nil
}

// Reorder saves a new order, then refetches.
func (h *Categories) Reorder(ctx context.Context, ids []string) error {
	if err := h.api.Reorder(ctx, ids); err != nil {
		return err
	}
	_ = h.Load(ctx)
	return nil
}

// ImportDefaults adds the stock categories, then refetches.
func (h *Categories) ImportDefaults(ctx context.Context) ([]models.Category, error) {
	added, err := h.api.ImportDefaults(ctx)
	if err != nil {
		return nil, err
	}
	_ = h.Load(ctx)
	return added, nil
}
