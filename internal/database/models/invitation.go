package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
)

// Invitation is a single-use, time-limited credential granting team
// membership to the invited email.
type Invitation struct {
	Base
	Email     string           `gorm:"index;not null" json:"email"`
	TeamID    uuid.UUID        `gorm:"type:uuid;index;not null" json:"team_id"`
	Token     string           `gorm:"uniqueIndex;not null" json:"token"`
	Status    InvitationStatus `gorm:"not null;default:'PENDING'" json:"status"`
	ExpiresAt time.Time        `gorm:"not null" json:"expires_at"`
	InviterID *uuid.UUID       `gorm:"type:uuid" json:"inviter_id,omitempty"`

	// Relationships
	Team    *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Inviter *User `gorm:"foreignKey:InviterID" json:"-"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
