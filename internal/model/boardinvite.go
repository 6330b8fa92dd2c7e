package model

import (
	"time"

	"github.com/google/uuid"
)

// Статусы приглашения. ACCEPTED — терминальный статус.
const (
	InviteStatusPending  = "PENDING"
	InviteStatusAccepted = "ACCEPTED"
)

type BoardInvite struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Email       string    `gorm:"not null;index"`
	Token       string    `gorm:"uniqueIndex;not null"`
	Status      string    `gorm:"not null;default:'PENDING'"`
	ExpiresAt   time.Time `gorm:"not null"`
	InvitedByID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Board     Board `gorm:"foreignKey:BoardID"`
	InvitedBy User  `gorm:"foreignKey:InvitedByID"`
}
