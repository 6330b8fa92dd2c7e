package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"easyble/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

// doneColumnTitles are the column titles treated as a board's "Done" column,
// matched case-insensitively.
var doneColumnTitles = []string{"done", "готово", "выполнено", "завершено"}

// Position-shifting transactions run serializable: two concurrent moves on
// the same column read overlapping ranges and plain read committed can commit
// both with duplicate positions. Serialization failures surface as SQLSTATE
// 40001 and callers map them to a retryable conflict.
var serializableTx = &sql.TxOptions{Isolation: sql.LevelSerializable}

// IsSerializationFailure reports whether err is a postgres serialization
// conflict (SQLSTATE 40001).
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task at position 0 of its column, shifting every existing
// task in the column down by one. The per-project task number is read and
// assigned inside the same transaction so concurrent inserts into the same
// project cannot collide.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next struct {
			Max int
		}
		if err := tx.Model(&model.Task{}).
			Select("COALESCE(MAX(tasks.project_task_number), 0) as max").
			Joins("JOIN columns ON columns.id = tasks.column_id").
			Joins("JOIN boards ON boards.id = columns.board_id").
			Where("boards.project_id = (?)",
				tx.Model(&model.Board{}).Select("boards.project_id").
					Joins("JOIN columns ON columns.board_id = boards.id").
					Where("columns.id = ?", task.ColumnID)).
			Scan(&next).Error; err != nil {
			return err
		}
		task.ProjectTaskNumber = next.Max + 1
		task.Position = 0

		// New tasks land at the top
		if err := tx.Model(&model.Task{}).
			Where("column_id = ?", task.ColumnID).
			Update("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}

		return tx.Create(task).Error
	}, serializableTx)
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Preload("Assignees").First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetActiveByColumnID retrieves the non-archived tasks in a column in order.
// Tasks archived in place keep their position, so the sequence seen here may
// contain gaps.
func (r *TaskRepository) GetActiveByColumnID(ctx context.Context, columnID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Preload("Assignees").
		Where("column_id = ? AND archived = ?", columnID, false).
		Order("position").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task and closes the gap it leaves in its column.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		if err := tx.Exec("DELETE FROM task_assignees WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Task{}, "id = ?", id).Error; err != nil {
			return err
		}

		return tx.Model(&model.Task{}).
			Where("column_id = ? AND position > ?", task.ColumnID, task.Position).
			Update("position", gorm.Expr("position - 1")).Error
	}, serializableTx)
}

// Move updates the position and/or column of a task
func (r *TaskRepository) Move(ctx context.Context, taskID uuid.UUID, columnID uuid.UUID, newPosition int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		// Dropping a task back where it was rewrites nothing
		if task.ColumnID == columnID && task.Position == newPosition {
			return nil
		}

		return moveTx(tx, &task, columnID, newPosition)
	}, serializableTx)
}

// moveTx shifts neighbours and re-homes the task. Either branch leaves every
// touched column with a contiguous 0..N-1 position sequence.
func moveTx(tx *gorm.DB, task *model.Task, columnID uuid.UUID, newPosition int) error {
	oldColumnID := task.ColumnID
	oldPosition := task.Position

	if oldColumnID != columnID {
		// Close the gap in the old column
		if err := tx.Model(&model.Task{}).
			Where("column_id = ? AND position > ?", oldColumnID, oldPosition).
			Update("position", gorm.Expr("position - 1")).Error; err != nil {
			return err
		}

		// Make space in the new column
		if err := tx.Model(&model.Task{}).
			Where("column_id = ? AND position >= ?", columnID, newPosition).
			Update("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}

		task.ColumnID = columnID
		task.Position = newPosition
	} else if oldPosition != newPosition {
		if oldPosition < newPosition {
			// Moving down: decrement positions of tasks between old and new
			if err := tx.Model(&model.Task{}).
				Where("column_id = ? AND position > ? AND position <= ?", columnID, oldPosition, newPosition).
				Update("position", gorm.Expr("position - 1")).Error; err != nil {
				return err
			}
		} else {
			// Moving up: increment positions of tasks between new and old
			if err := tx.Model(&model.Task{}).
				Where("column_id = ? AND position >= ? AND position < ?", columnID, newPosition, oldPosition).
				Update("position", gorm.Expr("position + 1")).Error; err != nil {
				return err
			}
		}

		task.Position = newPosition
	}

	return tx.Save(task).Error
}

// Complete marks a task done. When the board has an archive column (explicit
// on the board, or any column titled like "Done") the task is relocated to
// position 0 of that column; otherwise it is archived in place, keeping its
// position and leaving an intentional gap — archived tasks are excluded from
// active listings. A task that no longer exists returns ErrTaskNotFound,
// which callers treat as already handled.
func (r *TaskRepository) Complete(ctx context.Context, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		var column model.Column
		if err := tx.First(&column, "id = ?", task.ColumnID).Error; err != nil {
			return err
		}

		var board model.Board
		if err := tx.First(&board, "id = ?", column.BoardID).Error; err != nil {
			return err
		}

		now := time.Now()

		done, err := findDoneColumn(tx, &board)
		if err != nil {
			return err
		}

		if done == nil {
			// No done-like column: archive in place, position untouched
			return tx.Model(&model.Task{}).
				Where("id = ?", task.ID).
				Updates(map[string]interface{}{
					"status":   model.StatusDone,
					"archived": true,
					"end_at":   now,
				}).Error
		}

		if err := moveTx(tx, &task, done.ID, 0); err != nil {
			return err
		}
		return tx.Model(&model.Task{}).
			Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"status":   model.StatusDone,
				"archived": false,
				"end_at":   now,
			}).Error
	}, serializableTx)
}

// findDoneColumn resolves the board's archive column: the explicitly
// configured one wins, then a case-insensitive title match.
func findDoneColumn(tx *gorm.DB, board *model.Board) (*model.Column, error) {
	var done model.Column

	if board.ArchiveColumnID != nil {
		err := tx.First(&done, "id = ?", *board.ArchiveColumnID).Error
		if err == nil {
			return &done, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Configured column was deleted, fall through to the title search
	}

	err := tx.Where("board_id = ? AND LOWER(title) IN ?", board.ID, doneColumnTitles).
		Order("position").
		First(&done).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &done, nil
}

// ArchiveExpired archives done tasks of a board that finished more than
// olderThanDays days ago. Used by boards with archive_after_days configured.
func (r *TaskRepository) ArchiveExpired(ctx context.Context, boardID uuid.UUID, olderThanDays int) error {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("column_id IN (?)",
			r.db.Model(&model.Column{}).Select("id").Where("board_id = ?", boardID)).
		Where("status = ? AND archived = ? AND end_at < ?", model.StatusDone, false, cutoff).
		Update("archived", true).Error
}

// AssignUser assigns a user to a task
func (r *TaskRepository) AssignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		taskID, userID,
	).Error
}

// UnassignUser removes user assignment from a task
func (r *TaskRepository) UnassignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM task_assignees WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	).Error
}

// MyTaskRow is the flat projection behind /api/my-tasks.
type MyTaskRow struct {
	ID                uuid.UUID
	Title             string
	Number            string
	ProjectTaskNumber int
	Status            string
	CreatedAt         time.Time
	StartAt           *time.Time
	DueDate           *time.Time
}

func (r *TaskRepository) myTasksQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Select("tasks.id, tasks.title, projects.number, tasks.project_task_number, tasks.status, tasks.created_at, tasks.start_at, tasks.due_date").
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = columns.board_id").
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("tasks.archived = ?", false).
		Order("tasks.created_at DESC")
}

// ListAssigned returns active tasks assigned to the user (their "incoming").
func (r *TaskRepository) ListAssigned(ctx context.Context, userID uuid.UUID) ([]MyTaskRow, error) {
	var rows []MyTaskRow
	err := r.myTasksQuery(ctx).
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.user_id = ?", userID).
		Scan(&rows).Error
	return rows, err
}

// ListCreated returns active tasks created by the user (their "outgoing").
func (r *TaskRepository) ListCreated(ctx context.Context, userID uuid.UUID) ([]MyTaskRow, error) {
	var rows []MyTaskRow
	err := r.myTasksQuery(ctx).
		Where("tasks.creator_id = ?", userID).
		Scan(&rows).Error
	return rows, err
}
