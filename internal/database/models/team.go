package models

import "github.com/google/uuid"

// Membership roles. Exactly one OWNER exists per team and the update
// path never reassigns or removes it.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

type Team struct {
	Base
	Name string `gorm:"not null" json:"name"`

	// Relationships
	Members  []UserTeam `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Projects []Project  `gorm:"foreignKey:TeamID" json:"projects,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

// UserTeam joins a user to a team with a role. Membership is unique
// per (user, team) via the composite primary key.
type UserTeam struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TeamID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"team_id"`
	Role     string    `gorm:"not null;default:'MEMBER'" json:"role"`
	Accepted bool      `gorm:"default:true" json:"accepted"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team *Team `gorm:"foreignKey:TeamID" json:"-"`
}

func (UserTeam) TableName() string {
	return "user_teams"
}
