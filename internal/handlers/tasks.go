package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/queue"
	"github.com/taskmind/taskmind/internal/request"
	"github.com/taskmind/taskmind/internal/services/tasks"
	"github.com/taskmind/taskmind/internal/validation"
)

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 500
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 10000
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo     database.TaskRepositoryInterface
	categoryRepo database.CategoryRepositoryInterface
	service      *tasks.Service
	jobQueue     queue.JobQueue // nil when async re-evaluation is disabled
	logger       *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	taskRepo database.TaskRepositoryInterface,
	categoryRepo database.CategoryRepositoryInterface,
	service *tasks.Service,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		service:      service,
		jobQueue:     jobQueue,
		logger:       logger,
	}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/re-evaluate", h.ReEvaluateAll).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id}/re-evaluate", h.ReEvaluateTask).Methods("POST")
	r.HandleFunc("/{id}/re-evaluate-async", h.ReEvaluateTaskAsync).Methods("POST")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=500"`
	Description string     `json:"description" validate:"max=10000"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *models.TaskStatus `json:"status,omitempty"`
	CategoryID  *uuid.UUID         `json:"category_id,omitempty"`
}

// ListTasks lists tasks for the authenticated user, optionally filtered by
// status, ordered by priority
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var status *models.TaskStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateTaskStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		sEnum := models.TaskStatus(s)
		status = &sEnum
	}

	taskList, err := h.taskRepo.GetByUserID(r.Context(), user.ID, status)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}
	if taskList == nil {
		taskList = []*models.Task{}
	}

	respondJSON(w, http.StatusOK, taskList)
}

// CreateTask creates a new task and runs the suggestion pipeline on it. The
// task is persisted before the pipeline runs, so an LLM outage still leaves
// a usable task behind.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
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

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	req.Description = validation.SanitizeText(req.Description)

	ctx := r.Context()

	task := &models.Task{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusPending,
	}

	if req.CategoryID != nil {
		category, err := h.visibleCategory(r, *req.CategoryID, user.ID)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Unknown category")
			return
		}
		task.CategoryID = &category.ID
		task.CategoryName = category.Name
	}

	if err := h.taskRepo.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	// Run the pipeline and persist the enriched task. A failure here is
	// logged, never surfaced: the client already has a valid task.
	if err := h.service.EnrichAndSave(ctx, task); err != nil {
		h.logger.Warn("task_enrichment_failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTitleLength))
			return
		}
		task.Title = sanitized
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		if len(sanitized) > MaxDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", MaxDescriptionLength))
			return
		}
		task.Description = sanitized
	}
	if req.Status != nil {
		if err := validation.ValidateTaskStatus(string(*req.Status)); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Status = *req.Status
	}
	if req.CategoryID != nil {
		user := request.UserFromContext(r)
		category, err := h.visibleCategory(r, *req.CategoryID, user.ID)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Unknown category")
			return
		}
		task.CategoryID = &category.ID
		task.CategoryName = category.Name
	}

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(r.Context(), task.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	task.Status = models.TaskStatusCompleted

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// ReEvaluateTask re-runs the suggestion pipeline for a task synchronously
func (h *TaskHandler) ReEvaluateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if err := h.service.EnrichAndSave(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to re-evaluate task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// ReEvaluateTaskAsync queues a background re-evaluation for a task
func (h *TaskHandler) ReEvaluateTaskAsync(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background processing is not configured")
		return
	}

	taskID := task.ID
	job := queue.NewJob(queue.JobTypeSuggestTask, task.UserID, &taskID)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to queue re-evaluation")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"job_id":  job.ID,
		"task_id": task.ID,
	})
}

// ReEvaluateAll queues a background re-evaluation of every open task the
// user has
func (h *TaskHandler) ReEvaluateAll(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background processing is not configured")
		return
	}

	job := queue.NewJob(queue.JobTypeReprocessUser, user.ID, nil)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to queue re-evaluation")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
	})
}

// ownedTask loads the task from the URL and enforces ownership, writing the
// error response itself when the task is unusable
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil, false
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return nil, false
	}

	return task, true
}

// visibleCategory resolves a category the user may reference: their own or
// a global one
func (h *TaskHandler) visibleCategory(r *http.Request, id, userID uuid.UUID) (*models.Category, error) {
	category, err := h.categoryRepo.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if category.UserID != nil && *category.UserID != userID {
		return nil, fmt.Errorf("category not visible to user")
	}
	return category, nil
}
