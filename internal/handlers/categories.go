package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/bensuskins/planner/internal/services"
	"github.com/go-chi/chi/v5"
)

type categoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type CategoryHandler struct {
	categories   *services.CategoryService
	categoryRepo repository.CategoryRepository
}

func NewCategoryHandler(categories *services.CategoryService, categoryRepo repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categories: categories, categoryRepo: categoryRepo}
}

func (handler *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := handler.categories.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, "finding categories", err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (handler *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input categoryInput
	if !readJSON(w, r, &input) {
		return
	}
	category, ok := categoryFrom(w, input)
	if !ok {
		return
	}
	category.UserID = middleware.GetUserID(ctx)

	created, err := handler.categoryRepo.Create(ctx, category)
	if err != nil {
		writeError(w, "creating category", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, ok := handler.findOwned(w, r)
	if !ok {
		return
	}

	var input categoryInput
	if !readJSON(w, r, &input) {
		return
	}
	category, ok := categoryFrom(w, input)
	if !ok {
		return
	}
	category.ID = existing.ID
	category.UserID = existing.UserID

	if err := handler.categoryRepo.Update(ctx, category); err != nil {
		writeError(w, "updating category", err)
		return
	}
	updated, err := handler.categoryRepo.FindByID(ctx, category.ID)
	if err != nil {
		writeError(w, "finding category", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes the category. Items filed under it are kept and become
// uncategorised.
func (handler *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, ok := handler.findOwned(w, r)
	if !ok {
		return
	}

	if err := handler.categoryRepo.Delete(ctx, existing.ID); err != nil {
		writeError(w, "deleting category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *CategoryHandler) findOwned(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	category, err := handler.categoryRepo.FindByID(ctx, id)
	if err == nil && category.UserID != middleware.GetUserID(ctx) {
		err = fmt.Errorf("finding category %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		writeError(w, "finding category", err)
		return models.Category{}, false
	}
	return category, true
}

func categoryFrom(w http.ResponseWriter, input categoryInput) (models.Category, bool) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return models.Category{}, false
	}
	color := input.Color
	if color == "" {
		color = "#3b82f6"
	}
	return models.Category{Name: name, Color: color, Icon: input.Icon}, true
}
