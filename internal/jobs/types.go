package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInvitationEmail = "invitation:email"
	TypeInvitationSweep = "invitation:sweep"
)

// InvitationEmailPayload contains the data for an invitation e-mail task
type InvitationEmailPayload struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	Email        string    `json:"email"`
	TeamName     string    `json:"team_name"`
	InviterName  string    `json:"inviter_name"`
	Token        string    `json:"token"`
}

func NewInvitationEmailTask(payload InvitationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInvitationEmail, data), nil
}

// InvitationSweepPayload is empty - the sweep covers all teams
type InvitationSweepPayload struct{}

func NewInvitationSweepTask() *asynq.Task {
	return asynq.NewTask(TypeInvitationSweep, nil)
}
