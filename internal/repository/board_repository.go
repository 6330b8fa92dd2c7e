package repository

import (
	"context"
	"errors"

	"easyble/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Create(board).Error
}

func (r *BoardRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil to indicate that the board was not found
		}
		return nil, err
	}
	return &board, nil
}

func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Save(board).Error
}

// UpdateArchiveSettings sets the designated archive column and retention days.
func (r *BoardRepository) UpdateArchiveSettings(ctx context.Context, id uuid.UUID, archiveColumnID *uuid.UUID, archiveAfterDays *int) error {
	result := r.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"archive_column_id":  archiveColumnID,
			"archive_after_days": archiveAfterDays,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// Delete removes the board with all its columns and tasks. The deletes run
// inside one transaction ordered tasks -> columns -> board so a failure
// mid-sequence cannot orphan rows.
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM task_assignees WHERE task_id IN (
				SELECT tasks.id FROM tasks
				JOIN columns ON columns.id = tasks.column_id
				WHERE columns.board_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`DELETE FROM tasks WHERE column_id IN (
				SELECT id FROM columns WHERE board_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&model.Column{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&model.BoardInvite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&model.BoardMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Board{}, "id = ?", id).Error
	})
}
