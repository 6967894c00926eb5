package controllers

import (
	"net/http"

	"postpanel/app/models"
	"postpanel/app/services"

	"go.uber.org/zap"
)

// CategoryController serves the categories API
type CategoryController struct {
	categories *services.CategoryService
	logger     *zap.Logger
}

// NewCategoryController creates a category controller.
func NewCategoryController(categories *services.CategoryService, logger *zap.Logger) *CategoryController {
	return &CategoryController{categories: categories, logger: logger}
}

// Index lists categories, optionally narrowed by ?search=
func (cc *CategoryController) Index(w http.ResponseWriter, r *http.Request) {
	categories, err := cc.categories.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		sendError(w, r, cc.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, categories)
}

// Create handles POST /api/categories
func (cc *CategoryController) Create(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := decodeJSON(r, &category); err != nil {
		sendError(w, r, cc.logger, err)
		return
	}
	category.ID = 0
	if err := cc.categories.Create(r.Context(), &category); err != nil {
		sendError(w, r, cc.logger, err)
		return
	}
	sendJSON(w, http.StatusCreated, category)
}

// Options returns the preloaded select options. ?label=slug labels them like the form
// select, the default labels them like the table filter.
func (cc *CategoryController) Options(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	options, err := cc.categories.Options(r.Context(), q.Get("label"), q.Get("search"))
	if err != nil {
		sendError(w, r, cc.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, options)
}
