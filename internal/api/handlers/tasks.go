package handlers

import (
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

type TaskHandler struct {
	db *gorm.DB
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{db: db}
}

// CreateTaskRequest represents the request to create a task. A status
// field, if supplied, is ignored: new tasks always start in TO_DO.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	ProjectID   string  `json:"project_id"`
	AssignedID  *string `json:"assigned_id,omitempty"`
}

func (r CreateTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.ProjectID == "" {
		errors["project_id"] = "Project ID is required"
	} else if _, err := uuid.Parse(r.ProjectID); err != nil {
		errors["project_id"] = "Invalid project ID format"
	}
	if r.AssignedID != nil && *r.AssignedID != "" {
		if _, err := uuid.Parse(*r.AssignedID); err != nil {
			errors["assigned_id"] = "Invalid assignee ID format"
		}
	}
	return errors
}

// UpdateTaskRequest carries a partial task update. Status transitions
// are unrestricted within the enum, the board moves cards freely.
type UpdateTaskRequest struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Status       *string `json:"status,omitempty"`
	AssignedToID *string `json:"assigned_to_id,omitempty"`
}

func (r UpdateTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title != nil && *r.Title == "" {
		errors["title"] = "Title cannot be empty"
	}
	if r.Status != nil && !models.ValidTaskStatus(models.TaskStatus(*r.Status)) {
		errors["status"] = "Invalid task status"
	}
	if r.AssignedToID != nil && *r.AssignedToID != "" {
		if _, err := uuid.Parse(*r.AssignedToID); err != nil {
			errors["assigned_to_id"] = "Invalid assignee ID format"
		}
	}
	return errors
}

// Create handles POST /api/v1/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	projectID, _ := uuid.Parse(req.ProjectID)

	var project models.Project
	if err := h.db.WithContext(r.Context()).First(&project, projectID).Error; err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized to add tasks to this project"})
		return
	}
	if _, err := membershipOf(r.Context(), h.db, userID, project.TeamID); err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized to add tasks to this project"})
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   projectID,
		Status:      models.TaskStatusToDo,
	}
	if req.AssignedID != nil && *req.AssignedID != "" {
		assignedID, _ := uuid.Parse(*req.AssignedID)
		task.AssignedToID = &assignedID
	}

	if err := h.db.WithContext(r.Context()).Create(&task).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create task"})
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// Update handles PUT /api/v1/tasks/:id. Callers must belong to the team
// owning the task's project.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var task models.Task
	if err := h.db.WithContext(r.Context()).Preload("Project").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get task"})
		return
	}

	if _, err := membershipOf(r.Context(), h.db, userID, task.Project.TeamID); err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this project's team"})
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = models.TaskStatus(*req.Status)
	}
	if req.AssignedToID != nil {
		if *req.AssignedToID == "" {
			updates["assigned_to_id"] = nil
		} else {
			assignedID, _ := uuid.Parse(*req.AssignedToID)
			updates["assigned_to_id"] = assignedID
		}
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(&task).Updates(updates).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task"})
			return
		}
	}

	var updated models.Task
	if err := h.db.WithContext(r.Context()).Preload("AssignedTo").First(&updated, taskID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
