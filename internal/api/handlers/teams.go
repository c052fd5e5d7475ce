package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/taskboard/internal/api/dto"
	"github.com/hugh/taskboard/internal/api/middleware"
	"github.com/hugh/taskboard/internal/database/models"
	"github.com/hugh/taskboard/internal/jobs"
	"github.com/hugh/taskboard/internal/notify"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db       *gorm.DB
	notifier notify.Notifier
	queue    *asynq.Client
	logger   *slog.Logger
}

func NewTeamHandler(db *gorm.DB, notifier notify.Notifier, queue *asynq.Client, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{db: db, notifier: notifier, queue: queue, logger: logger}
}

// CreateTeamRequest represents the request to create a team
type CreateTeamRequest struct {
	Name string `json:"name"`
}

func (r CreateTeamRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

// MemberEntry is one desired membership row in a team update.
type MemberEntry struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// UpdateTeamRequest represents the full desired state of a team: its
// name and its member list (the owner is implicit and untouchable).
type UpdateTeamRequest struct {
	Name    string        `json:"name"`
	Members []MemberEntry `json:"members"`
}

func (r UpdateTeamRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Name == "" {
		errs["name"] = "Invalid team name"
	}
	if r.Members == nil {
		errs["members"] = "Invalid members list"
	}
	for _, m := range r.Members {
		if m.Role != "" && !models.ValidRole(m.Role) {
			errs["members"] = "Invalid role: " + m.Role
		}
	}
	return errs
}

// membershipOf loads the caller's membership row for a team. Returns
// gorm.ErrRecordNotFound when the caller does not belong to the team.
func membershipOf(ctx context.Context, db *gorm.DB, userID, teamID uuid.UUID) (*models.UserTeam, error) {
	var membership models.UserTeam
	err := db.WithContext(ctx).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// List handles GET /api/v1/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var memberships []models.UserTeam
	if err := h.db.WithContext(r.Context()).
		Preload("Team.Projects").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list teams"})
		return
	}

	teams := make([]models.Team, 0, len(memberships))
	for _, m := range memberships {
		if m.Team != nil {
			teams = append(teams, *m.Team)
		}
	}

	writeJSON(w, http.StatusOK, teams)
}

// Create handles POST /api/v1/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	team := models.Team{
		Name: req.Name,
		Members: []models.UserTeam{
			{UserID: userID, Role: models.RoleOwner, Accepted: true},
		},
	}

	if err := h.db.WithContext(r.Context()).Create(&team).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create team"})
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

// Get handles GET /api/v1/teams/:id. Non-members get a 404, the team's
// existence is not disclosed to outsiders.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid team ID"})
		return
	}

	if _, err := membershipOf(r.Context(), h.db, userID, teamID); err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Team not found"})
		return
	}

	var team models.Team
	if err := h.db.WithContext(r.Context()).
		Preload("Members.User").
		First(&team, teamID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get team"})
		return
	}

	writeJSON(w, http.StatusOK, team)
}

// Update handles PUT /api/v1/teams/:id. The request carries the desired
// member list; the handler diffs it against current memberships. Added
// members receive an invitation (with notification and e-mail) and an
// immediate membership row. The OWNER row is never modified or removed.
// Statements run independently, a mid-flight failure leaves earlier
// writes in place.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid team ID"})
		return
	}

	caller, err := membershipOf(ctx, h.db, userID, teamID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Team not found or unauthorized"})
		return
	}

	if caller.Role != models.RoleOwner && caller.Role != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Only team owners/admin can update the team"})
		return
	}

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var team models.Team
	if err := h.db.WithContext(ctx).Preload("Members.User").First(&team, teamID).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Team not found"})
		return
	}

	// Index current members by email; find the owner
	currentByEmail := make(map[string]models.UserTeam, len(team.Members))
	var ownerEmail string
	for _, m := range team.Members {
		if m.User == nil {
			continue
		}
		currentByEmail[m.User.Email] = m
		if m.Role == models.RoleOwner {
			ownerEmail = m.User.Email
		}
	}

	// The OWNER role is never granted through this path. Only the
	// current owner may carry it in the request, and only for itself.
	for _, entry := range req.Members {
		if entry.Role == models.RoleOwner && entry.Email != ownerEmail {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Details: map[string]string{"members": "OWNER role cannot be assigned"},
			})
			return
		}
	}

	if err := h.db.WithContext(ctx).Model(&team).Update("name", req.Name).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update team"})
		return
	}

	requestedByEmail := make(map[string]MemberEntry, len(req.Members))
	for _, m := range req.Members {
		requestedByEmail[m.Email] = m
	}

	// Add: requested emails that are not current members (owner excluded)
	for _, entry := range req.Members {
		if entry.Email == ownerEmail {
			continue
		}
		if _, exists := currentByEmail[entry.Email]; exists {
			continue
		}

		var invitee models.User
		if err := h.db.WithContext(ctx).Where("email = ?", entry.Email).First(&invitee).Error; err != nil {
			// Only registered users can be bulk-added; others go through
			// the invitation endpoint
			continue
		}

		if err := h.invite(ctx, &team, &invitee, userID); err != nil {
			h.logger.Error("failed to invite member", "email", entry.Email, "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update team"})
			return
		}

		role := entry.Role
		if role == "" {
			role = models.RoleMember
		}
		membership := models.UserTeam{
			UserID:   invitee.ID,
			TeamID:   teamID,
			Role:     role,
			Accepted: true,
		}
		if err := h.db.WithContext(ctx).Create(&membership).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update team"})
			return
		}
	}

	// Remove: current non-owner members absent from the request
	for email, m := range currentByEmail {
		if m.Role == models.RoleOwner {
			continue
		}
		if _, wanted := requestedByEmail[email]; wanted {
			continue
		}
		if err := h.db.WithContext(ctx).
			Where("user_id = ? AND team_id = ?", m.UserID, teamID).
			Delete(&models.UserTeam{}).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update team"})
			return
		}
	}

	// Re-role: current non-owner members whose requested role differs
	for email, m := range currentByEmail {
		entry, wanted := requestedByEmail[email]
		if !wanted || m.Role == models.RoleOwner {
			continue
		}
		if entry.Role == "" || entry.Role == m.Role {
			continue
		}
		if err := h.db.WithContext(ctx).
			Model(&models.UserTeam{}).
			Where("user_id = ? AND team_id = ?", m.UserID, teamID).
			Update("role", entry.Role).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update team"})
			return
		}
	}

	var updated models.Team
	if err := h.db.WithContext(ctx).Preload("Members.User").First(&updated, teamID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update team"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// invite records an invitation for a bulk-added member and fires the
// notification and e-mail side effects. Side-effect failures are logged
// and do not fail the update.
func (h *TeamHandler) invite(ctx context.Context, team *models.Team, invitee *models.User, inviterID uuid.UUID) error {
	token, err := newInvitationToken()
	if err != nil {
		return err
	}

	invitation := models.Invitation{
		Email:     invitee.Email,
		TeamID:    team.ID,
		Token:     token,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(invitationTTL),
		InviterID: &inviterID,
	}
	if err := h.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		return err
	}

	inviterName := middleware.GetUserName(ctx)
	if h.notifier != nil {
		notice := notify.InvitationNotice{
			InvitationID: invitation.ID.String(),
			TeamName:     team.Name,
			Token:        invitation.Token,
			InviterName:  inviterName,
		}
		if err := h.notifier.PublishInvitation(ctx, invitee.Email, notice); err != nil {
			h.logger.Warn("failed to publish invitation notice", "email", invitee.Email, "error", err)
		}
	}

	if h.queue != nil {
		task, err := jobs.NewInvitationEmailTask(jobs.InvitationEmailPayload{
			InvitationID: invitation.ID,
			Email:        invitee.Email,
			TeamName:     team.Name,
			InviterName:  inviterName,
			Token:        invitation.Token,
		})
		if err == nil {
			if _, err := h.queue.EnqueueContext(ctx, task); err != nil {
				h.logger.Warn("failed to enqueue invitation e-mail", "email", invitee.Email, "error", err)
			}
		}
	}

	return nil
}
