package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title     string     `gorm:"not null"`
	Icon      string
	Number    string     `gorm:"not null"` // display prefix for task numbers, e.g. "EZB"
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	TeamID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`

	Owner User  `gorm:"foreignKey:OwnerID"`
	Team  *Team `gorm:"foreignKey:TeamID"`
}
