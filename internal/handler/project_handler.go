package handler

import (
	"net/http"
	"strings"

	"easyble/internal/model"
	"easyble/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
	teamRepo    *repository.TeamRepository
}

func NewProjectHandler(projectRepo *repository.ProjectRepository, teamRepo *repository.TeamRepository) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo, teamRepo: teamRepo}
}

// ProjectRequest представляет запрос на создание или обновление проекта
type ProjectRequest struct {
	Title  string  `json:"title" binding:"required"`
	Icon   string  `json:"icon"`
	Number string  `json:"number" binding:"required,alphanum,max=8"`
	TeamID *string `json:"team_id"`
}

type ProjectResponse struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Icon   string  `json:"icon"`
	Number string  `json:"number"`
	TeamID *string `json:"team_id,omitempty"`
}

func toProjectResponse(project *model.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:     project.ID.String(),
		Title:  project.Title,
		Icon:   project.Icon,
		Number: project.Number,
	}
	if project.TeamID != nil {
		teamID := project.TeamID.String()
		resp.TeamID = &teamID
	}
	return resp
}

func (h *ProjectHandler) resolveTeam(c *gin.Context, userID uuid.UUID, teamIDStr *string) (*uuid.UUID, bool) {
	if teamIDStr == nil {
		return nil, true
	}

	teamID, err := uuid.Parse(*teamIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team ID format"})
		return nil, false
	}

	team, err := h.teamRepo.GetByID(c.Request.Context(), teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return nil, false
	}
	if team == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return nil, false
	}
	if team.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to use this team"})
		return nil, false
	}

	return &teamID, true
}

func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	teamID, ok := h.resolveTeam(c, userID, req.TeamID)
	if !ok {
		return
	}

	project := &model.Project{
		Title:   req.Title,
		Icon:    req.Icon,
		Number:  strings.ToUpper(req.Number),
		OwnerID: userID,
		TeamID:  teamID,
	}

	if err := h.projectRepo.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(project))
}

func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectRepo.GetVisible(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		response = append(response, toProjectResponse(&projects[i]))
	}

	c.JSON(http.StatusOK, response)
}

// getOwnedProject загружает проект и проверяет, что он принадлежит пользователю
func (h *ProjectHandler) getOwnedProject(c *gin.Context, userID uuid.UUID) *model.Project {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return nil
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return nil
	}
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to modify this project"})
		return nil
	}

	return project
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
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
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to view this project"})
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project := h.getOwnedProject(c, userID)
	if project == nil {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	teamID, ok := h.resolveTeam(c, userID, req.TeamID)
	if !ok {
		return
	}

	project.Title = req.Title
	project.Icon = req.Icon
	project.Number = strings.ToUpper(req.Number)
	project.TeamID = teamID

	if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project := h.getOwnedProject(c, userID)
	if project == nil {
		return
	}

	if err := h.projectRepo.Delete(c.Request.Context(), project.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
