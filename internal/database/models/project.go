package models

import "github.com/google/uuid"

type Project struct {
	Base
	Title  string    `gorm:"not null" json:"title"`
	TeamID uuid.UUID `gorm:"type:uuid;index;not null" json:"team_id"`

	// Comma-delimited labels, free-form
	Tags string `json:"tags,omitempty"`

	// Relationships
	Team  *Team  `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Tasks []Task `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
