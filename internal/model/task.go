package model

import (
	"time"

	"github.com/google/uuid"
)

// Статусы задачи
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

type Task struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ColumnID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"not null"`
	Description       string
	Status            string `gorm:"not null;default:'TODO'"`
	ProjectTaskNumber int    `gorm:"not null"`
	Position          int    `gorm:"not null"`
	CreatorID         uuid.UUID `gorm:"type:uuid;not null"`
	DueDate           *time.Time
	StartAt           *time.Time
	EndAt             *time.Time
	Archived          bool `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Column    Column `gorm:"foreignKey:ColumnID"`
	Creator   User   `gorm:"foreignKey:CreatorID"`
	Assignees []User `gorm:"many2many:task_assignees"`
}
