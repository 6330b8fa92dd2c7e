package handler

import (
	"net/http"

	"easyble/internal/model"
	"easyble/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ColumnHandler struct {
	columnRepo *repository.ColumnRepository
	boardRepo  *repository.BoardRepository
	taskRepo   *repository.TaskRepository
	memberRepo *repository.MemberRepository
}

func NewColumnHandler(
	columnRepo *repository.ColumnRepository,
	boardRepo *repository.BoardRepository,
	taskRepo *repository.TaskRepository,
	memberRepo *repository.MemberRepository,
) *ColumnHandler {
	return &ColumnHandler{
		columnRepo: columnRepo,
		boardRepo:  boardRepo,
		taskRepo:   taskRepo,
		memberRepo: memberRepo,
	}
}

type ColumnRequest struct {
	Title   string `json:"title" binding:"required"`
	Color   string `json:"color"`
	BoardID string `json:"board_id" binding:"required,uuid"`
}

type ColumnReorderRequest struct {
	Columns []struct {
		ID       string `json:"id" binding:"required,uuid"`
		Position int    `json:"position" binding:"min=0"`
	} `json:"columns" binding:"required"`
}

type ColumnResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Color    string `json:"color"`
	BoardID  string `json:"board_id"`
	Position int    `json:"position"`
}

func toColumnResponse(column *model.Column) ColumnResponse {
	return ColumnResponse{
		ID:       column.ID.String(),
		Title:    column.Title,
		Color:    column.Color,
		BoardID:  column.BoardID.String(),
		Position: column.Position,
	}
}

func (h *ColumnHandler) checkBoardAccess(c *gin.Context, boardID, userID uuid.UUID, role string) bool {
	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), boardID, userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this board"})
		return false
	}
	return true
}

func (h *ColumnHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	boardID, err := uuid.Parse(req.BoardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	if !h.checkBoardAccess(c, boardID, userID, model.RoleEditor) {
		return
	}

	// Новая колонка добавляется в конец доски
	maxPosition, err := h.columnRepo.GetMaxPosition(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute position"})
		return
	}

	column := &model.Column{
		BoardID:  boardID,
		Title:    req.Title,
		Color:    req.Color,
		Position: maxPosition + 1,
	}

	if err := h.columnRepo.Create(c.Request.Context(), column); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create column"})
		return
	}

	c.JSON(http.StatusCreated, toColumnResponse(column))
}

// GetAll возвращает колонки доски. Перед чтением применяет настройку
// archive_after_days — завершенные задачи старше срока архивируются.
func (h *ColumnHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	if !h.checkBoardAccess(c, boardID, userID, model.RoleViewer) {
		return
	}

	if board.ArchiveAfterDays != nil {
		if err := h.taskRepo.ArchiveExpired(c.Request.Context(), boardID, *board.ArchiveAfterDays); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive expired tasks"})
			return
		}
	}

	columns, err := h.columnRepo.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve columns"})
		return
	}

	response := make([]ColumnResponse, 0, len(columns))
	for i := range columns {
		response = append(response, toColumnResponse(&columns[i]))
	}

	c.JSON(http.StatusOK, response)
}

// getColumnWithAccess загружает колонку и проверяет доступ к ее доске
func (h *ColumnHandler) getColumnWithAccess(c *gin.Context, userID uuid.UUID, role string) *model.Column {
	columnID, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return nil
	}
	if column == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
		return nil
	}

	if !h.checkBoardAccess(c, column.BoardID, userID, role) {
		return nil
	}

	return column
}

func (h *ColumnHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	column := h.getColumnWithAccess(c, userID, model.RoleViewer)
	if column == nil {
		return
	}

	c.JSON(http.StatusOK, toColumnResponse(column))
}

func (h *ColumnHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	column := h.getColumnWithAccess(c, userID, model.RoleEditor)
	if column == nil {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	column.Title = req.Title
	column.Color = req.Color
	if err := h.columnRepo.Update(c.Request.Context(), column); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update column"})
		return
	}

	c.JSON(http.StatusOK, toColumnResponse(column))
}

func (h *ColumnHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	column := h.getColumnWithAccess(c, userID, model.RoleEditor)
	if column == nil {
		return
	}

	if err := h.columnRepo.Delete(c.Request.Context(), column.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete column"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ColumnHandler) ReorderColumns(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if !h.checkBoardAccess(c, boardID, userID, model.RoleEditor) {
		return
	}

	var req ColumnReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Проверка доступа выше покрывает только доску из URL, поэтому каждый
	// переданный ID обязан принадлежать именно ей
	boardColumns, err := h.columnRepo.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve columns"})
		return
	}
	onBoard := make(map[uuid.UUID]bool, len(boardColumns))
	for i := range boardColumns {
		onBoard[boardColumns[i].ID] = true
	}

	columns := make([]model.Column, 0, len(req.Columns))
	for _, item := range req.Columns {
		columnID, err := uuid.Parse(item.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
			return
		}
		if !onBoard[columnID] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Column does not belong to this board"})
			return
		}
		columns = append(columns, model.Column{ID: columnID, Position: item.Position})
	}

	if err := h.columnRepo.ReorderColumns(c.Request.Context(), columns); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder columns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reordered"})
}
