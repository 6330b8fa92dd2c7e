package repository

import (
	"context"
	"errors"

	"easyble/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

// GetVisible returns projects owned by the user plus projects of their teams.
func (r *ProjectRepository) GetVisible(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Or("team_id IN (?)", r.db.Model(&model.Team{}).Select("id").Where("owner_id = ?", userID)).
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete removes a project and everything under it. All deletes run in one
// transaction ordered tasks -> columns -> boards -> project so foreign keys
// never see an orphan.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM task_assignees WHERE task_id IN (
				SELECT tasks.id FROM tasks
				JOIN columns ON columns.id = tasks.column_id
				JOIN boards ON boards.id = columns.board_id
				WHERE boards.project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`DELETE FROM tasks WHERE column_id IN (
				SELECT columns.id FROM columns
				JOIN boards ON boards.id = columns.board_id
				WHERE boards.project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`DELETE FROM columns WHERE board_id IN (
				SELECT id FROM boards WHERE project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`DELETE FROM board_invites WHERE board_id IN (
				SELECT id FROM boards WHERE project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`DELETE FROM board_members WHERE board_id IN (
				SELECT id FROM boards WHERE project_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.Board{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, "id = ?", id).Error
	})
}
