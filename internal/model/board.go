package model

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title            string     `gorm:"not null"`
	ProjectID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ArchiveColumnID  *uuid.UUID `gorm:"type:uuid"`
	ArchiveAfterDays *int
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Project Project `gorm:"foreignKey:ProjectID"`
}
