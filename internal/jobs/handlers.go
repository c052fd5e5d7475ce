package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/taskboard/internal/database/models"
	"github.com/hugh/taskboard/internal/mailer"
	"gorm.io/gorm"
)

type Handler struct {
	db      *gorm.DB
	logger  *slog.Logger
	mailer  mailer.Mailer
	baseURL string
}

func NewHandler(db *gorm.DB, logger *slog.Logger, m mailer.Mailer, baseURL string) *Handler {
	return &Handler{
		db:      db,
		logger:  logger,
		mailer:  m,
		baseURL: baseURL,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvitationEmail, h.HandleInvitationEmail)
	mux.HandleFunc(TypeInvitationSweep, h.HandleInvitationSweep)
}

func (h *Handler) HandleInvitationEmail(ctx context.Context, t *asynq.Task) error {
	var payload InvitationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	// Skip if the invitation was already spent or swept
	var invitation models.Invitation
	if err := h.db.WithContext(ctx).First(&invitation, payload.InvitationID).Error; err != nil {
		h.logger.Warn("invitation gone before e-mail delivery", "invitation_id", payload.InvitationID)
		return nil
	}
	if invitation.Status != models.InvitationPending {
		return nil
	}

	link := fmt.Sprintf("%s/invitations/%s", h.baseURL, payload.Token)
	if err := h.mailer.SendInvitation(ctx, payload.Email, payload.TeamName, payload.InviterName, link); err != nil {
		return fmt.Errorf("sending invitation email: %w", err)
	}

	h.logger.Info("invitation e-mail sent",
		"invitation_id", payload.InvitationID,
		"email", payload.Email,
	)

	return nil
}

// HandleInvitationSweep deletes PENDING invitations whose expiry has
// passed. Accepted invitations are kept as membership provenance.
func (h *Handler) HandleInvitationSweep(ctx context.Context, t *asynq.Task) error {
	result := h.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.InvitationPending, time.Now()).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return fmt.Errorf("sweeping invitations: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		h.logger.Info("swept expired invitations", "count", result.RowsAffected)
	}

	return nil
}
