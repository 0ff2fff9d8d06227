package handlers

import (
	"net/http"

	"github.com/ternarybob/reperio/internal/services/presets"
)

// CategoryHandler serves the preset category catalog
type CategoryHandler struct{}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// ListCategoriesHandler handles GET /api/categories
func (h *CategoryHandler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	listing, order := presets.List()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": listing,
		"order":      order,
		"defaults":   presets.DefaultKeys,
	})
}
