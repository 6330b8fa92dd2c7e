package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"easyble/internal/handler"
	"easyble/internal/middleware"
	"easyble/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupColumnTest(t *testing.T, userID uuid.UUID) (*gin.Engine, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	columnRepo := repository.NewColumnRepository(gormDB)
	boardRepo := repository.NewBoardRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	memberRepo := repository.NewMemberRepository(gormDB)
	columnHandler := handler.NewColumnHandler(columnRepo, boardRepo, taskRepo, memberRepo)

	gin.SetMode(gin.TestMode)
	r := gin.Default()
	// Аутентификация подменяется заранее известным пользователем
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	r.POST("/boards/:id/columns/reorder", columnHandler.ReorderColumns)

	return r, mock
}

func reorderBody(t *testing.T, ids []uuid.UUID) *bytes.Buffer {
	type item struct {
		ID       string `json:"id"`
		Position int    `json:"position"`
	}
	payload := struct {
		Columns []item `json:"columns"`
	}{}
	for i, id := range ids {
		payload.Columns = append(payload.Columns, item{ID: id.String(), Position: i})
	}
	jsonBody, err := json.Marshal(payload)
	assert.NoError(t, err)
	return bytes.NewBuffer(jsonBody)
}

func TestReorderColumns_RejectsForeignColumn(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, mock := setupColumnTest(t, userID)

	boardID := uuid.New()
	ownColumnID := uuid.New()
	foreignColumnID := uuid.New()

	// Пользователь — владелец проекта доски из URL
	mock.ExpectQuery(`SELECT .* FROM "boards" JOIN projects ON projects.id = boards.project_id WHERE boards.id = .* AND projects.owner_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "project_id"}).
			AddRow(boardID.String(), "Board", uuid.New().String()))
	// На доске одна колонка; вторая из запроса с чужой доски
	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE board_id = .* ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position"}).
			AddRow(ownColumnID.String(), boardID.String(), "To Do", 0))

	req, _ := http.NewRequest("POST", "/boards/"+boardID.String()+"/columns/reorder",
		reorderBody(t, []uuid.UUID{ownColumnID, foreignColumnID}))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert: запрос отклонен, ни одного UPDATE не выполнено
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Column does not belong to this board", response["error"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReorderColumns_OwnColumns(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, mock := setupColumnTest(t, userID)

	boardID := uuid.New()
	firstColumnID := uuid.New()
	secondColumnID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "boards" JOIN projects ON projects.id = boards.project_id WHERE boards.id = .* AND projects.owner_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "project_id"}).
			AddRow(boardID.String(), "Board", uuid.New().String()))
	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE board_id = .* ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position"}).
			AddRow(firstColumnID.String(), boardID.String(), "To Do", 0).
			AddRow(secondColumnID.String(), boardID.String(), "In Progress", 1))

	// Обе колонки свои — позиции перезаписываются в одной транзакции
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "columns" SET "position"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "columns" SET "position"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, _ := http.NewRequest("POST", "/boards/"+boardID.String()+"/columns/reorder",
		reorderBody(t, []uuid.UUID{secondColumnID, firstColumnID}))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
