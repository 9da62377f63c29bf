package cli

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/finadm/internal/hooks"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
)

// matchCategory picks the category a typed name most likely means:
// exact (case-insensitive), then the shortest name containing it, then a
// shared word of three or more letters. Nil when nothing fits.
func matchCategory(typed string, categories []models.Category) *models.Category {
	want := strings.ToLower(strings.TrimSpace(typed))
	if want == "" {
		return nil
	}

	for i := range categories {
		if strings.EqualFold(categories[i].Name, want) {
			return &categories[i]
		}
	}

	var best *models.Category
	for i := range categories {
		if strings.Contains(strings.ToLower(categories[i].Name), want) &&
			(best == nil || len(categories[i].Name) < len(best.Name)) {
			best = &categories[i]
		}
	}
	if best != nil {
		return best
	}

	typedWords := words(want)
	for i := range categories {
		for _, cw := range words(categories[i].Name) {
			for _, tw := range typedWords {
				if cw == tw {
					return &categories[i]
				}
			}
		}
	}
	return nil
}

func words(s string) []string {
	s = strings.NewReplacer("-", " ", "/", " ", "&", " ").Replace(strings.ToLower(s))
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) >= 3 && w != "and" && w != "the" && w != "for" {
			out = append(out, w)
		}
	}
	return out
}

// resolveCategory maps a typed category onto one of the user's categories
// of the given type. The typed text is kept when none matches or the list
// cannot be loaded; the backend accepts free-form categories.
func (a *App) resolveCategory(ctx context.Context, typed string, typ models.TransactionType) string {
	h := hooks.NewCategories(a.svc.Categories, a.svc.Auth, service.CategoryFilter{Type: string(typ)})
	if err := h.Load(ctx); err != nil {
		logger.Log.Debug().Err(err).Msg("Category lookup failed, using typed name")
		return typed
	}
	if c := matchCategory(typed, h.Categories()); c != nil {
		return c.Name
	}
	return typed
}
