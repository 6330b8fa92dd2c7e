package handler

import (
	"fmt"
	"net/http"

	"easyble/internal/repository"

	"github.com/gin-gonic/gin"
)

// dateLayout — формат дат в ответе /api/my-tasks
const dateLayout = "02.01.2006"

type MyTasksHandler struct {
	taskRepo  *repository.TaskRepository
	jwtSecret string
}

func NewMyTasksHandler(taskRepo *repository.TaskRepository, jwtSecret string) *MyTasksHandler {
	return &MyTasksHandler{taskRepo: taskRepo, jwtSecret: jwtSecret}
}

// TaskRow представляет строку списка задач пользователя
type TaskRow struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DisplayID string `json:"displayId"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
	StartDate string `json:"startDate,omitempty"`
	Deadline  string `json:"deadline,omitempty"`
}

func toTaskRows(rows []repository.MyTaskRow, rowType string) []TaskRow {
	result := make([]TaskRow, 0, len(rows))
	for _, row := range rows {
		item := TaskRow{
			ID:        row.ID.String(),
			Title:     row.Title,
			DisplayID: fmt.Sprintf("%s-%d", row.Number, row.ProjectTaskNumber),
			Status:    row.Status,
			Type:      rowType,
			CreatedAt: row.CreatedAt.Format(dateLayout),
		}
		if row.StartAt != nil {
			item.StartDate = row.StartAt.Format(dateLayout)
		}
		if row.DueDate != nil {
			item.Deadline = row.DueDate.Format(dateLayout)
		}
		result = append(result, item)
	}
	return result
}

// List возвращает назначенные (incoming) и созданные (outgoing) задачи
// пользователя. Без аутентификации — 401 с пустыми массивами, не ошибка.
func (h *MyTasksHandler) List(c *gin.Context) {
	userID, ok := userFromBearer(c, h.jwtSecret)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"incoming": []TaskRow{},
			"outgoing": []TaskRow{},
		})
		return
	}

	incoming, err := h.taskRepo.ListAssigned(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	outgoing, err := h.taskRepo.ListCreated(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incoming": toTaskRows(incoming, "incoming"),
		"outgoing": toTaskRows(outgoing, "outgoing"),
	})
}
