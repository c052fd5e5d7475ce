package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
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

// Invitations are valid for 7 days from creation.
const invitationTTL = 7 * 24 * time.Hour

// newInvitationToken generates the opaque single-use credential.
func newInvitationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type InvitationHandler struct {
	db       *gorm.DB
	notifier notify.Notifier
	queue    *asynq.Client
	logger   *slog.Logger
}

func NewInvitationHandler(db *gorm.DB, notifier notify.Notifier, queue *asynq.Client, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{db: db, notifier: notifier, queue: queue, logger: logger}
}

// CreateInvitationRequest represents the request to invite a user
type CreateInvitationRequest struct {
	Email  string `json:"email"`
	TeamID string `json:"team_id"`
}

func (r CreateInvitationRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.TeamID == "" {
		errors["team_id"] = "Team ID is required"
	} else if _, err := uuid.Parse(r.TeamID); err != nil {
		errors["team_id"] = "Invalid team ID format"
	}
	return errors
}

// List handles GET /api/v1/invitations: the caller's pending,
// unexpired invitations with their teams.
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())

	var invitations []models.Invitation
	if err := h.db.WithContext(r.Context()).
		Preload("Team").
		Where("email = ? AND status = ? AND expires_at > ?", email, models.InvitationPending, time.Now()).
		Find(&invitations).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list invitations"})
		return
	}

	writeJSON(w, http.StatusOK, invitations)
}

// Create handles POST /api/v1/invitations. Only the team OWNER can
// invite; the invitee is notified over pub/sub and by e-mail.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	teamID, _ := uuid.Parse(req.TeamID)

	var team models.Team
	if err := h.db.WithContext(ctx).First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Team not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get team"})
		return
	}

	membership, err := membershipOf(ctx, h.db, userID, teamID)
	if err != nil || membership.Role != models.RoleOwner {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Only team owners can send invitations"})
		return
	}

	token, err := newInvitationToken()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send invitation"})
		return
	}

	invitation := models.Invitation{
		Email:     req.Email,
		TeamID:    teamID,
		Token:     token,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(invitationTTL),
		InviterID: &userID,
	}
	if err := h.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send invitation"})
		return
	}

	inviterName := middleware.GetUserName(ctx)
	if h.notifier != nil {
		notice := notify.InvitationNotice{
			InvitationID: invitation.ID.String(),
			TeamName:     team.Name,
			Token:        invitation.Token,
			InviterName:  inviterName,
		}
		if err := h.notifier.PublishInvitation(ctx, invitation.Email, notice); err != nil {
			h.logger.Warn("failed to publish invitation notice", "email", invitation.Email, "error", err)
		}
	}

	if h.queue != nil {
		task, err := jobs.NewInvitationEmailTask(jobs.InvitationEmailPayload{
			InvitationID: invitation.ID,
			Email:        invitation.Email,
			TeamName:     team.Name,
			InviterName:  inviterName,
			Token:        invitation.Token,
		})
		if err == nil {
			if _, err := h.queue.EnqueueContext(ctx, task); err != nil {
				h.logger.Warn("failed to enqueue invitation e-mail", "email", invitation.Email, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Invitation sent successfully",
		"invitation": invitation,
	})
}

// Accept handles POST /api/v1/invitations/{token}. The caller must be
// signed in as the invited email. Marking the invitation ACCEPTED and
// creating the membership happen in one transaction; this is the one
// all-or-nothing flow in the system.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	email := middleware.GetUserEmail(ctx)

	token := chi.URLParam(r, "token")

	var invitation models.Invitation
	if err := h.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invalid invitation link"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to accept invitation"})
		return
	}

	if invitation.Status != models.InvitationPending || invitation.Expired(time.Now()) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invitation has already been used or has expired"})
		return
	}

	if invitation.Email != email {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "This invitation is not for you"})
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationPending).
			Update("status", models.InvitationAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		membership := models.UserTeam{
			UserID:   userID,
			TeamID:   invitation.TeamID,
			Role:     models.RoleMember,
			Accepted: true,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to accept invitation"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{
		Message: "Invitation accepted. You are now a member of the team.",
	})
}
