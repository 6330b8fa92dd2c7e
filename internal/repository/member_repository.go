package repository

import (
	"context"
	"errors"

	"easyble/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Upsert добавляет пользователя к доске; существующая запись не изменяется
func (r *MemberRepository) Upsert(ctx context.Context, boardID, userID uuid.UUID, role string) error {
	member := model.BoardMember{
		BoardID: boardID,
		UserID:  userID,
		Role:    role,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
}

// Remove удаляет доступ пользователя к доске
func (r *MemberRepository) Remove(ctx context.Context, boardID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&model.BoardMember{}).Error
}

// GetBoardMembers возвращает список пользователей с доступом к доске
func (r *MemberRepository) GetBoardMembers(ctx context.Context, boardID uuid.UUID) ([]model.BoardMember, error) {
	var members []model.BoardMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Find(&members).Error
	return members, err
}

// IsProjectOwner проверяет, владеет ли пользователь проектом доски
func (r *MemberRepository) IsProjectOwner(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	var board model.Board
	err := r.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("boards.id = ? AND projects.owner_id = ?", boardID, userID).
		First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CheckAccess проверяет, имеет ли пользователь доступ к доске с указанной ролью или выше
func (r *MemberRepository) CheckAccess(ctx context.Context, boardID, userID uuid.UUID, requiredRole string) (bool, error) {
	// Владелец проекта всегда имеет полный доступ
	owner, err := r.IsProjectOwner(ctx, boardID, userID)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}

	// Проверяем права по таблице участников
	var member model.BoardMember
	err = r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error

	// Нет доступа
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Для роли "viewer" подойдет любая роль
	if requiredRole == model.RoleViewer {
		return true, nil
	}

	// Для роли "editor" проверяем, что у пользователя роль "editor"
	return member.Role == model.RoleEditor, nil
}
