package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/request"
	"github.com/taskmind/taskmind/internal/validation"
)

// MaxCategoryNameLength is the maximum length for a category name
const MaxCategoryNameLength = 100

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryRepo database.CategoryRepositoryInterface
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryRepo database.CategoryRepositoryInterface) *CategoryHandler {
	return &CategoryHandler{categoryRepo: categoryRepo}
}

// RegisterRoutes registers category routes on the given router
// The router should already have the /categories prefix
func (h *CategoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCategories).Methods("GET")
	r.HandleFunc("", h.CreateCategory).Methods("POST")
	r.HandleFunc("/{id}", h.GetCategory).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateCategory).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteCategory).Methods("DELETE")
}

// CreateCategoryRequest represents a create category request
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// UpdateCategoryRequest represents an update category request
type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// ListCategories lists the categories visible to the user: their own plus
// the global set
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	categories, err := h.categoryRepo.GetVisibleByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve categories")
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}

	respondJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a new user-owned category
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	userID := user.ID
	category := &models.Category{
		ID:     uuid.New(),
		UserID: &userID,
		Name:   req.Name,
	}

	if err := h.categoryRepo.Create(r.Context(), category); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create category")
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// GetCategory retrieves a visible category by ID
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.visibleCategory(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// UpdateCategory renames a user-owned category. Global categories are
// read-only through the API.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.ownedCategory(w, r)
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}
	if len(req.Name) > MaxCategoryNameLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Name exceeds maximum length of %d characters", MaxCategoryNameLength))
		return
	}

	category.Name = req.Name
	if err := h.categoryRepo.Update(r.Context(), category); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update category")
		return
	}

	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory deletes a user-owned category
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.ownedCategory(w, r)
	if !ok {
		return
	}

	if err := h.categoryRepo.Delete(r.Context(), category.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// visibleCategory loads the category from the URL if the user can see it
func (h *CategoryHandler) visibleCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid category ID")
		return nil, false
	}

	category, err := h.categoryRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Category not found")
		return nil, false
	}

	if category.UserID != nil && *category.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Category does not belong to user")
		return nil, false
	}

	return category, true
}

// ownedCategory loads the category from the URL if the user owns it; global
// categories are rejected
func (h *CategoryHandler) ownedCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	category, ok := h.visibleCategory(w, r)
	if !ok {
		return nil, false
	}
	if category.UserID == nil {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Global categories are read-only")
		return nil, false
	}
	return category, true
}
