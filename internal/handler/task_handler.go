package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"easyble/internal/model"
	"easyble/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// titleLimit — максимальная длина заголовка; остаток текста уходит в описание
const titleLimit = 100

type TaskHandler struct {
	taskRepo   *repository.TaskRepository
	columnRepo *repository.ColumnRepository
	memberRepo *repository.MemberRepository
	userRepo   repository.UserRepositoryInterface
}

func NewTaskHandler(
	taskRepo *repository.TaskRepository,
	columnRepo *repository.ColumnRepository,
	memberRepo *repository.MemberRepository,
	userRepo repository.UserRepositoryInterface,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:   taskRepo,
		columnRepo: columnRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
	}
}

// TaskCreateRequest представляет запрос на создание задачи: свободный текст,
// который делится на заголовок и описание
type TaskCreateRequest struct {
	Content  string     `json:"content" binding:"required"`
	ColumnID string     `json:"column_id" binding:"required,uuid"`
	DueDate  *time.Time `json:"due_date"`
	StartAt  *time.Time `json:"start_at"`
}

// TaskUpdateRequest представляет запрос на обновление задачи
type TaskUpdateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate     *time.Time `json:"due_date"`
	StartAt     *time.Time `json:"start_at"`
}

// TaskMoveRequest представляет запрос на перемещение задачи
type TaskMoveRequest struct {
	ColumnID string `json:"column_id" binding:"required,uuid"`
	Position *int   `json:"position" binding:"required,min=0"`
}

// TaskAssignRequest представляет запрос на назначение пользователя на задачу
type TaskAssignRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// TaskResponse представляет ответ с данными задачи
type TaskResponse struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Status            string   `json:"status"`
	ColumnID          string   `json:"column_id"`
	ProjectTaskNumber int      `json:"project_task_number"`
	Position          int      `json:"position"`
	CreatorID         string   `json:"creator_id"`
	Assignees         []string `json:"assignees,omitempty"`
	DueDate           *string  `json:"due_date,omitempty"`
	StartAt           *string  `json:"start_at,omitempty"`
	EndAt             *string  `json:"end_at,omitempty"`
	Archived          bool     `json:"archived"`
}

func toTaskResponse(task *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:                task.ID.String(),
		Title:             task.Title,
		Description:       task.Description,
		Status:            task.Status,
		ColumnID:          task.ColumnID.String(),
		ProjectTaskNumber: task.ProjectTaskNumber,
		Position:          task.Position,
		CreatorID:         task.CreatorID.String(),
		Archived:          task.Archived,
	}
	for _, assignee := range task.Assignees {
		resp.Assignees = append(resp.Assignees, assignee.ID.String())
	}
	if task.DueDate != nil {
		s := task.DueDate.Format(time.RFC3339)
		resp.DueDate = &s
	}
	if task.StartAt != nil {
		s := task.StartAt.Format(time.RFC3339)
		resp.StartAt = &s
	}
	if task.EndAt != nil {
		s := task.EndAt.Format(time.RFC3339)
		resp.EndAt = &s
	}
	return resp
}

// splitContent делит свободный текст на заголовок не длиннее titleLimit рун
// и описание из остатка
func splitContent(content string) (title, description string) {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content, ""
	}
	title = strings.TrimSpace(string(runes[:titleLimit]))
	description = strings.TrimSpace(string(runes[titleLimit:]))
	return title, description
}

func (h *TaskHandler) conflictOrInternal(c *gin.Context, err error, msg string) {
	if repository.IsSerializationFailure(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Conflicting update, retry the operation"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// getTaskWithAccess загружает задачу и проверяет доступ к доске ее колонки
func (h *TaskHandler) getTaskWithAccess(c *gin.Context, userID uuid.UUID, role string) *model.Task {
	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), task.ColumnID)
	if err != nil || column == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return nil
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), column.BoardID, userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return nil
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this task"})
		return nil
	}

	return task
}

// Create создает новую задачу на вершине колонки
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	title, description := splitContent(req.Content)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task title must not be empty"})
		return
	}

	columnID, err := uuid.Parse(req.ColumnID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
		return
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return
	}
	if column == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), column.BoardID, userID, model.RoleEditor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create tasks on this board"})
		return
	}

	task := &model.Task{
		ColumnID:    columnID,
		Title:       title,
		Description: description,
		Status:      model.StatusTodo,
		CreatorID:   userID,
		DueDate:     req.DueDate,
		StartAt:     req.StartAt,
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		h.conflictOrInternal(c, err, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetByID получает задачу по ID
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.getTaskWithAccess(c, userID, model.RoleViewer)
	if task == nil {
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// GetByColumnID получает активные задачи колонки; архивные исключаются
func (h *TaskHandler) GetByColumnID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	columnID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return
	}
	if column == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), column.BoardID, userID, model.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to view this column"})
		return
	}

	tasks, err := h.taskRepo.GetActiveByColumnID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, toTaskResponse(&tasks[i]))
	}

	c.JSON(http.StatusOK, response)
}

// Update обновляет заголовок, описание, статус и даты задачи
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.getTaskWithAccess(c, userID, model.RoleEditor)
	if task == nil {
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	if req.Status != "" {
		task.Status = req.Status
	}
	task.DueDate = req.DueDate
	task.StartAt = req.StartAt

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete удаляет задачу; колонка уплотняется
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.getTaskWithAccess(c, userID, model.RoleEditor)
	if task == nil {
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), task.ID); err != nil {
		h.conflictOrInternal(c, err, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Move перемещает задачу на новую позицию, возможно в другую колонку
func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.getTaskWithAccess(c, userID, model.RoleEditor)
	if task == nil {
		return
	}

	var req TaskMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	targetColumnID, err := uuid.Parse(req.ColumnID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
		return
	}

	targetColumn, err := h.columnRepo.GetByID(c.Request.Context(), targetColumnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return
	}
	if targetColumn == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target column not found"})
		return
	}

	// Перенос между досками не поддерживается
	sourceColumn, err := h.columnRepo.GetByID(c.Request.Context(), task.ColumnID)
	if err != nil || sourceColumn == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return
	}
	if sourceColumn.BoardID != targetColumn.BoardID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot move task to another board"})
		return
	}

	if err := h.taskRepo.Move(c.Request.Context(), task.ID, targetColumnID, *req.Position); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.conflictOrInternal(c, err, "Failed to move task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "moved"})
}

// Complete завершает задачу: переносит в колонку Done или архивирует на
// месте. Повторный вызов для уже удаленной задачи — не ошибка.
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			// Задача уже обработана — идемпотентный no-op
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), task.ColumnID)
	if err != nil || column == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), column.BoardID, userID, model.RoleEditor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to complete this task"})
		return
	}

	if err := h.taskRepo.Complete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		h.conflictOrInternal(c, err, "Failed to complete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// AssignUser назначает пользователя на задачу
func (h *TaskHandler) AssignUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.getTaskWithAccess(c, userID, model.RoleEditor)
	if task == nil {
		return
	}

	var req TaskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	assigneeID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	assignee, err := h.userRepo.GetByID(c.Request.Context(), assigneeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if assignee == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.taskRepo.AssignUser(c.Request.Context(), task.ID, assigneeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

// UnassignUser снимает назначение пользователя с задачи
func (h *TaskHandler) UnassignUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.getTaskWithAccess(c, userID, model.RoleEditor)
	if task == nil {
		return
	}

	var req TaskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	assigneeID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.taskRepo.UnassignUser(c.Request.Context(), task.ID, assigneeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unassigned"})
}
