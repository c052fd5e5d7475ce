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

type ProjectHandler struct {
	db *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db}
}

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	Title  string `json:"title"`
	TeamID string `json:"team_id"`
	Tags   string `json:"tags,omitempty"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.TeamID == "" {
		errors["team_id"] = "Team ID is required"
	} else if _, err := uuid.Parse(r.TeamID); err != nil {
		errors["team_id"] = "Invalid team ID format"
	}
	return errors
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	teamID, _ := uuid.Parse(req.TeamID)
	if _, err := membershipOf(r.Context(), h.db, userID, teamID); err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this team"})
		return
	}

	project := models.Project{
		Title:  req.Title,
		TeamID: teamID,
		Tags:   req.Tags,
	}

	if err := h.db.WithContext(r.Context()).Create(&project).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create project"})
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// Get handles GET /api/v1/projects/:id. The board view: team members
// with users, plus tasks in creation order with their assignees.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return
	}

	var project models.Project
	err = h.db.WithContext(r.Context()).
		Preload("Team.Members.User").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Tasks.AssignedTo").
		First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get project"})
		return
	}

	if _, err := membershipOf(r.Context(), h.db, userID, project.TeamID); err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not a member of this project's team"})
		return
	}

	writeJSON(w, http.StatusOK, project)
}
