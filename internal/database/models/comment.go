package models

import "github.com/google/uuid"

type Comment struct {
	Base
	Content  string    `gorm:"not null" json:"content"`
	TaskID   uuid.UUID `gorm:"type:uuid;index;not null" json:"task_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`

	// Relationships
	Task   *Task `gorm:"foreignKey:TaskID" json:"-"`
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
