package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/taskboard/internal/api/dto"
	"github.com/hugh/taskboard/internal/api/middleware"
	"github.com/hugh/taskboard/internal/database/models"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

// CreateCommentRequest represents the request to comment on a task
type CreateCommentRequest struct {
	Content string `json:"content"`
}

func (r CreateCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Content == "" {
		errors["content"] = "Content is required"
	}
	return errors
}

// loadTaskForMember fetches the task and verifies the caller belongs to
// the owning team. Writes the error response itself and returns nil on
// failure.
func (h *CommentHandler) loadTaskForMember(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Task {
	userID := middleware.GetUserID(ctx)

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return nil
	}

	var task models.Task
	if err := h.db.WithContext(ctx).Preload("Project").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
			return nil
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get task"})
		return nil
	}

	if _, err := membershipOf(ctx, h.db, userID, task.Project.TeamID); err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this project's team"})
		return nil
	}

	return &task
}

// Create handles POST /api/v1/tasks/:id/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	task := h.loadTaskForMember(ctx, w, r)
	if task == nil {
		return
	}

	comment := models.Comment{
		Content:  req.Content,
		TaskID:   task.ID,
		AuthorID: middleware.GetUserID(ctx),
	}
	if err := h.db.WithContext(ctx).Create(&comment).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to add comment"})
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// List handles GET /api/v1/tasks/:id/comments, oldest first.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task := h.loadTaskForMember(ctx, w, r)
	if task == nil {
		return
	}

	var comments []models.Comment
	if err := h.db.WithContext(ctx).
		Preload("Author").
		Where("task_id = ?", task.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list comments"})
		return
	}

	writeJSON(w, http.StatusOK, comments)
}
