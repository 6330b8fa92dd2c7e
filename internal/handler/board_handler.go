package handler

import (
	"net/http"

	"easyble/internal/model"
	"easyble/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BoardHandler struct {
	boardRepo   *repository.BoardRepository
	projectRepo *repository.ProjectRepository
	columnRepo  *repository.ColumnRepository
	memberRepo  *repository.MemberRepository
}

func NewBoardHandler(
	boardRepo *repository.BoardRepository,
	projectRepo *repository.ProjectRepository,
	columnRepo *repository.ColumnRepository,
	memberRepo *repository.MemberRepository,
) *BoardHandler {
	return &BoardHandler{
		boardRepo:   boardRepo,
		projectRepo: projectRepo,
		columnRepo:  columnRepo,
		memberRepo:  memberRepo,
	}
}

type BoardRequest struct {
	Title     string `json:"title" binding:"required"`
	ProjectID string `json:"project_id" binding:"required,uuid"`
}

// ArchiveSettingsRequest представляет настройки архивации доски
type ArchiveSettingsRequest struct {
	ArchiveColumnID  *string `json:"archive_column_id"`
	ArchiveAfterDays *int    `json:"archive_after_days" binding:"omitempty,min=1"`
}

type BoardResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	ProjectID        string  `json:"project_id"`
	ArchiveColumnID  *string `json:"archive_column_id,omitempty"`
	ArchiveAfterDays *int    `json:"archive_after_days,omitempty"`
}

func toBoardResponse(board *model.Board) BoardResponse {
	resp := BoardResponse{
		ID:               board.ID.String(),
		Title:            board.Title,
		ProjectID:        board.ProjectID.String(),
		ArchiveAfterDays: board.ArchiveAfterDays,
	}
	if board.ArchiveColumnID != nil {
		id := board.ArchiveColumnID.String()
		resp.ArchiveColumnID = &id
	}
	return resp
}

func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req BoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create boards in this project"})
		return
	}

	board := &model.Board{
		Title:     req.Title,
		ProjectID: projectID,
	}

	if err := h.boardRepo.Create(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	c.JSON(http.StatusCreated, toBoardResponse(board))
}

func (h *BoardHandler) GetByProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	boards, err := h.boardRepo.GetByProjectID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	// Владелец проекта видит все доски, остальные — только свои по членству
	response := make([]BoardResponse, 0, len(boards))
	for i := range boards {
		if project.OwnerID != userID {
			hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), boards[i].ID, userID, model.RoleViewer)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
				return
			}
			if !hasAccess {
				continue
			}
		}
		response = append(response, toBoardResponse(&boards[i]))
	}

	c.JSON(http.StatusOK, response)
}

func (h *BoardHandler) GetByID(c *gin.Context) {
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

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), boardID, userID, model.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to view this board"})
		return
	}

	c.JSON(http.StatusOK, toBoardResponse(board))
}

func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
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

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), boardID, userID, model.RoleEditor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to update this board"})
		return
	}

	board.Title = req.Title
	if err := h.boardRepo.Update(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	c.JSON(http.StatusOK, toBoardResponse(board))
}

// UpdateArchiveSettings задает колонку и срок архивации для доски
func (h *BoardHandler) UpdateArchiveSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ArchiveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	isOwner, err := h.memberRepo.IsProjectOwner(c.Request.Context(), boardID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !isOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to configure this board"})
		return
	}

	var archiveColumnID *uuid.UUID
	if req.ArchiveColumnID != nil {
		columnID, err := uuid.Parse(*req.ArchiveColumnID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
			return
		}

		column, err := h.columnRepo.GetByID(c.Request.Context(), columnID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
			return
		}
		if column == nil || column.BoardID != boardID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Column does not belong to this board"})
			return
		}
		archiveColumnID = &columnID
	}

	if err := h.boardRepo.UpdateArchiveSettings(c.Request.Context(), boardID, archiveColumnID, req.ArchiveAfterDays); err != nil {
		if err == repository.ErrBoardNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *BoardHandler) Delete(c *gin.Context) {
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

	isOwner, err := h.memberRepo.IsProjectOwner(c.Request.Context(), boardID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !isOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete this board"})
		return
	}

	if err := h.boardRepo.Delete(c.Request.Context(), boardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
