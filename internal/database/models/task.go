package models

import "github.com/google/uuid"

type TaskStatus string

const (
	TaskStatusBacklog    TaskStatus = "BACKLOG"
	TaskStatusToDo       TaskStatus = "TO_DO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusBacklog, TaskStatusToDo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	Base
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `gorm:"not null;default:'TO_DO'" json:"status"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`

	// Nullable assignee
	AssignedToID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id,omitempty"`

	// Relationships
	Project    *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	AssignedTo *User     `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Comments   []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}
