package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"easyble/internal/model"
	"easyble/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func taskRows(task *model.Task) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "column_id", "title", "description", "status",
		"project_task_number", "position", "creator_id", "archived",
	}).AddRow(
		task.ID.String(), task.ColumnID.String(), task.Title, task.Description, task.Status,
		task.ProjectTaskNumber, task.Position, task.CreatorID.String(), task.Archived,
	)
}

func columnRows(column *model.Column) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "board_id", "title", "color", "position"}).
		AddRow(column.ID.String(), column.BoardID.String(), column.Title, column.Color, column.Position)
}

func boardRows(board *model.Board) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "project_id", "archive_column_id", "archive_after_days"})
	var archiveColumnID interface{}
	if board.ArchiveColumnID != nil {
		archiveColumnID = board.ArchiveColumnID.String()
	}
	rows.AddRow(board.ID.String(), board.Title, board.ProjectID.String(), archiveColumnID, board.ArchiveAfterDays)
	return rows
}

func TestTaskRepository_Create_AssignsNumberAndTopPosition(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	taskID := uuid.New()
	task := &model.Task{
		ColumnID:  uuid.New(),
		Title:     "New task",
		Status:    model.StatusTodo,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	// Номер задачи: максимум по проекту + 1
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(tasks\.project_task_number\), 0\) as max`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(41))
	// Существующие задачи колонки сдвигаются вниз
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position \+ 1,.*WHERE column_id`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(taskID.String()))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Create(context.Background(), task)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 42, task.ProjectTaskNumber)
	assert.Equal(t, 0, task.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Move_NoOp(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	columnID := uuid.New()
	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  columnID,
		Title:     "Task",
		Status:    model.StatusTodo,
		Position:  1,
		CreatorID: uuid.New(),
	}

	// Перемещение на текущее место не должно ничего перезаписывать
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Move(context.Background(), task.ID, columnID, 1)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Move_BackwardWithinColumn(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	columnID := uuid.New()
	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  columnID,
		Title:     "C",
		Status:    model.StatusTodo,
		Position:  2,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	// Задачи между новой и старой позицией сдвигаются вниз
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position \+ 1,.*WHERE column_id = .* AND position >= .* AND position < .*`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	// Сама задача сохраняется на новой позиции
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Move(context.Background(), task.ID, columnID, 0)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Move_ForwardWithinColumn(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	columnID := uuid.New()
	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  columnID,
		Title:     "A",
		Status:    model.StatusTodo,
		Position:  0,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	// Задачи между старой и новой позицией сдвигаются вверх
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position - 1,.*WHERE column_id = .* AND position > .* AND position <= .*`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Move(context.Background(), task.ID, columnID, 2)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Move_CrossColumn(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	sourceColumnID := uuid.New()
	targetColumnID := uuid.New()
	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  sourceColumnID,
		Title:     "X",
		Status:    model.StatusTodo,
		Position:  1,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	// Исходная колонка уплотняется
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position - 1,.*WHERE column_id = .* AND position > .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// В целевой колонке освобождается место
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position \+ 1,.*WHERE column_id = .* AND position >= .*`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Move(context.Background(), task.ID, targetColumnID, 0)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Move_TaskNotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	// Act
	err := taskRepo.Move(context.Background(), uuid.New(), uuid.New(), 0)

	// Assert
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_ClosesGap(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  uuid.New(),
		Title:     "B",
		Status:    model.StatusTodo,
		Position:  1,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	mock.ExpectExec(`DELETE FROM task_assignees WHERE task_id = .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "tasks"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Задачи ниже удаленной поднимаются на одну позицию
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position - 1,.*WHERE column_id = .* AND position > .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Delete(context.Background(), task.ID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Complete_MovesToDoneColumn(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	boardID := uuid.New()
	sourceColumn := &model.Column{ID: uuid.New(), BoardID: boardID, Title: "To Do", Position: 0}
	doneColumn := &model.Column{ID: uuid.New(), BoardID: boardID, Title: "Done", Position: 2}
	board := &model.Board{ID: boardID, Title: "Board", ProjectID: uuid.New()}
	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  sourceColumn.ID,
		Title:     "X",
		Status:    model.StatusInProgress,
		Position:  1,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE id = .*`).
		WillReturnRows(columnRows(sourceColumn))
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = .*`).
		WillReturnRows(boardRows(board))
	// Поиск колонки Done по названию
	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE board_id = .* AND LOWER\(title\) IN`).
		WillReturnRows(columnRows(doneColumn))
	// Кросс-колоночное перемещение на вершину Done
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position - 1,.*WHERE column_id = .* AND position > .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position \+ 1,.*WHERE column_id = .* AND position >= .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Статус, archived и end_at проставляются
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Complete(context.Background(), task.ID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Complete_ArchivesInPlace(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	boardID := uuid.New()
	sourceColumn := &model.Column{ID: uuid.New(), BoardID: boardID, Title: "To Do", Position: 0}
	board := &model.Board{ID: boardID, Title: "Board", ProjectID: uuid.New()}
	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  sourceColumn.ID,
		Title:     "X",
		Status:    model.StatusInProgress,
		Position:  1,
		CreatorID: uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE id = .*`).
		WillReturnRows(columnRows(sourceColumn))
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = .*`).
		WillReturnRows(boardRows(board))
	// Колонки Done на доске нет
	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE board_id = .* AND LOWER\(title\) IN`).
		WillReturnError(gorm.ErrRecordNotFound)
	// Задача архивируется на месте, позиция не меняется
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := taskRepo.Complete(context.Background(), task.ID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Complete_MissingTask(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	// Act
	err := taskRepo.Complete(context.Background(), uuid.New())

	// Assert: вызывающая сторона трактует это как идемпотентный no-op
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetByID_PreloadsAssignees(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	task := &model.Task{
		ID:        uuid.New(),
		ColumnID:  uuid.New(),
		Title:     "Task",
		Status:    model.StatusTodo,
		CreatorID: uuid.New(),
	}
	assigneeID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows(task))
	mock.ExpectQuery(`SELECT .* FROM "task_assignees"`).
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "user_id"}).
			AddRow(task.ID.String(), assigneeID.String()))
	mock.ExpectQuery(`SELECT .* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).
			AddRow(assigneeID.String(), "assignee@example.com", "Assignee"))

	// Act
	found, err := taskRepo.GetByID(context.Background(), task.ID)

	// Assert: список исполнителей приходит вместе с задачей
	assert.NoError(t, err)
	assert.Len(t, found.Assignees, 1)
	assert.Equal(t, assigneeID, found.Assignees[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetActiveByColumnID_ExcludesArchived(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	columnID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE column_id = .* AND archived = .* ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "column_id", "title", "position", "archived"}).
			AddRow(uuid.New().String(), columnID.String(), "A", 0, false).
			AddRow(uuid.New().String(), columnID.String(), "B", 1, false))
	// Preload списка исполнителей
	mock.ExpectQuery(`SELECT .* FROM "task_assignees"`).
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "user_id"}))

	// Act
	tasks, err := taskRepo.GetActiveByColumnID(context.Background(), columnID)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, 0, tasks[0].Position)
	assert.Equal(t, 1, tasks[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ArchiveExpired(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	boardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "archived"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	// Act
	err := taskRepo.ArchiveExpired(context.Background(), boardID, 30)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_AssignUser_Idempotent(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	taskRepo := repository.NewTaskRepository(gormDB)

	taskID := uuid.New()
	userID := uuid.New()

	// Повторное назначение проглатывается ON CONFLICT DO NOTHING
	mock.ExpectExec(`INSERT INTO task_assignees .* ON CONFLICT DO NOTHING`).
		WithArgs(taskID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Act
	err := taskRepo.AssignUser(context.Background(), taskID, userID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSerializationFailure(t *testing.T) {
	serErr := &pgconn.PgError{Code: "40001"}
	assert.True(t, repository.IsSerializationFailure(serErr))
	assert.True(t, repository.IsSerializationFailure(fmt.Errorf("move: %w", serErr)))

	assert.False(t, repository.IsSerializationFailure(nil))
	assert.False(t, repository.IsSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, repository.IsSerializationFailure(errors.New("plain error")))
}
