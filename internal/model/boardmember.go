package model

import (
	"time"

	"github.com/google/uuid"
)

// BoardMember представляет связь между пользователем и доской
type BoardMember struct {
	BoardID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"not null;check:role IN ('viewer', 'editor')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Board Board `gorm:"foreignKey:BoardID"`
	User  User  `gorm:"foreignKey:UserID"`
}

// Роли пользователей для доски
const (
	RoleViewer = "viewer" // может только просматривать
	RoleEditor = "editor" // может редактировать
)
