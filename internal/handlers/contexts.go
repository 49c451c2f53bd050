package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/request"
	"github.com/taskmind/taskmind/internal/services/ai"
	"github.com/taskmind/taskmind/internal/validation"
)

const (
	// MaxContextContentLength is the maximum length for context entry content
	MaxContextContentLength = 10000
	// MaxSourceTypeLength is the maximum length for a source type label
	MaxSourceTypeLength = 50
	// DefaultContextListLimit bounds unqualified context listings
	DefaultContextListLimit = 100
)

// ContextAnalyzer extracts structured insights from free-form context
type ContextAnalyzer interface {
	AnalyzeDailyContext(ctx context.Context, content string) (*ai.ContextInsights, error)
}

// ContextHandler handles context entry requests
type ContextHandler struct {
	contextRepo database.ContextEntryRepositoryInterface
	analyzer    ContextAnalyzer
	logger      *zap.Logger
}

// NewContextHandler creates a new context handler
func NewContextHandler(contextRepo database.ContextEntryRepositoryInterface, analyzer ContextAnalyzer, logger *zap.Logger) *ContextHandler {
	return &ContextHandler{
		contextRepo: contextRepo,
		analyzer:    analyzer,
		logger:      logger,
	}
}

// RegisterRoutes registers context entry routes on the given router
// The router should already have the /contexts prefix
func (h *ContextHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListContexts).Methods("GET")
	r.HandleFunc("", h.CreateContext).Methods("POST")
	r.HandleFunc("/analyze", h.AnalyzeContext).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteContext).Methods("DELETE")
}

// CreateContextRequest represents a create context entry request
type CreateContextRequest struct {
	Content    string `json:"content" validate:"required,min=1,max=10000"`
	SourceType string `json:"source_type" validate:"max=50"`
}

// AnalyzeContextRequest represents an ad-hoc context analysis request
type AnalyzeContextRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// ListContexts lists the user's context entries, newest first
func (h *ContextHandler) ListContexts(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := DefaultContextListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed < DefaultContextListLimit {
			limit = parsed
		}
	}

	entries, err := h.contextRepo.GetByUserID(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve context entries")
		return
	}
	if entries == nil {
		entries = []models.ContextEntry{}
	}

	respondJSON(w, http.StatusOK, entries)
}

// CreateContext stores a new context entry
func (h *ContextHandler) CreateContext(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateContextRequest
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

	req.Content = validation.SanitizeText(req.Content)
	if req.Content == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Content is required and cannot be empty after sanitization")
		return
	}

	sourceType := validation.SanitizeText(req.SourceType)
	if sourceType == "" {
		sourceType = "note"
	}

	entry := &models.ContextEntry{
		ID:         uuid.New(),
		UserID:     user.ID,
		Content:    req.Content,
		SourceType: sourceType,
	}

	if err := h.contextRepo.Create(r.Context(), entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create context entry")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// DeleteContext deletes one of the user's context entries
func (h *ContextHandler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid context entry ID")
		return
	}

	entry, err := h.contextRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Context entry not found")
		return
	}
	if entry.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Context entry does not belong to user")
		return
	}

	if err := h.contextRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete context entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeContext runs ad-hoc LLM analysis over a block of context without
// storing it. Unlike task suggestions this surfaces LLM failures to the
// caller; there is no meaningful fallback for an analysis.
func (h *ContextHandler) AnalyzeContext(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req AnalyzeContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	req.Content = validation.SanitizeText(req.Content)
	if req.Content == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Content is required")
		return
	}

	insights, err := h.analyzer.AnalyzeDailyContext(r.Context(), req.Content)
	if err != nil {
		h.logger.Warn("context_analysis_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Context analysis is currently unavailable")
		return
	}

	respondJSON(w, http.StatusOK, insights)
}
