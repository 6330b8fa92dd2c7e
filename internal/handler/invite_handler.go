package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"easyble/internal/mailer"
	"easyble/internal/model"
	"easyble/internal/repository"

	"github.com/gin-gonic/gin"
)

type InviteHandler struct {
	inviteRepo *repository.InviteRepository
	memberRepo *repository.MemberRepository
	boardRepo  *repository.BoardRepository
	userRepo   repository.UserRepositoryInterface
	mail       mailer.Sender
	appURL     string
	inviteTTL  time.Duration
}

func NewInviteHandler(
	inviteRepo *repository.InviteRepository,
	memberRepo *repository.MemberRepository,
	boardRepo *repository.BoardRepository,
	userRepo repository.UserRepositoryInterface,
	mail mailer.Sender,
	appURL string,
	inviteTTLHours int,
) *InviteHandler {
	return &InviteHandler{
		inviteRepo: inviteRepo,
		memberRepo: memberRepo,
		boardRepo:  boardRepo,
		userRepo:   userRepo,
		mail:       mail,
		appURL:     appURL,
		inviteTTL:  time.Duration(inviteTTLHours) * time.Hour,
	}
}

// InviteRequest представляет запрос на приглашение по email
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type InviteAcceptRequest struct {
	Token string `json:"token" binding:"required"`
}

type InviteResponse struct {
	ID        string `json:"id"`
	BoardID   string `json:"board_id"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

func toInviteResponse(invite *model.BoardInvite) InviteResponse {
	return InviteResponse{
		ID:        invite.ID.String(),
		BoardID:   invite.BoardID.String(),
		Email:     invite.Email,
		Status:    invite.Status,
		ExpiresAt: invite.ExpiresAt.Format(time.RFC3339),
	}
}

func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Send создает приглашение на доску. Приглашать может только владелец
// проекта доски. Если у приглашаемого уже есть аккаунт, приглашение сразу
// принимается и пользователь добавляется к доске.
func (h *InviteHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	req.Email = strings.ToLower(req.Email)

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
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to invite users to this board"})
		return
	}

	token, err := newInviteToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	invite := &model.BoardInvite{
		BoardID:     boardID,
		Email:       req.Email,
		Token:       token,
		Status:      model.InviteStatusPending,
		ExpiresAt:   time.Now().Add(h.inviteTTL),
		InvitedByID: userID,
	}

	// Существующий пользователь добавляется к доске сразу, без письма
	invitee, err := h.userRepo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if invitee != nil {
		invite.Status = model.InviteStatusAccepted
		if err := h.inviteRepo.Create(c.Request.Context(), invite); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
			return
		}
		if err := h.memberRepo.Upsert(c.Request.Context(), boardID, invitee.ID, model.RoleEditor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add board member"})
			return
		}
		c.JSON(http.StatusCreated, toInviteResponse(invite))
		return
	}

	if err := h.inviteRepo.Create(c.Request.Context(), invite); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	link := fmt.Sprintf("%s/invites/accept?token=%s", h.appURL, token)
	text := fmt.Sprintf("You were invited to the board %q on Easyble. Accept the invitation: %s", board.Title, link)
	html := fmt.Sprintf(`<p>You were invited to the board <b>%s</b> on Easyble.</p><p><a href="%s">Accept the invitation</a></p>`, board.Title, link)
	if err := h.mail.Send(req.Email, "Easyble board invitation", text, html); err != nil {
		log.Printf("⚠️  Invite mail to %s failed: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send invitation email"})
		return
	}

	c.JSON(http.StatusCreated, toInviteResponse(invite))
}

// GetByBoard возвращает приглашения доски
func (h *InviteHandler) GetByBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	isOwner, err := h.memberRepo.IsProjectOwner(c.Request.Context(), boardID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !isOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to view invitations"})
		return
	}

	invites, err := h.inviteRepo.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invitations"})
		return
	}

	response := make([]InviteResponse, 0, len(invites))
	for i := range invites {
		response = append(response, toInviteResponse(&invites[i]))
	}

	c.JSON(http.StatusOK, response)
}

// Accept принимает приглашение по токену. Просроченный или уже принятый
// токен отклоняется с одним и тем же сообщением.
func (h *InviteHandler) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req InviteAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	invite, err := h.inviteRepo.Accept(c.Request.Context(), req.Token, userID)
	if err != nil {
		if errors.Is(err, repository.ErrInviteInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недействительное или просроченное приглашение"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
		return
	}

	c.JSON(http.StatusOK, toInviteResponse(invite))
}

// GetMembers возвращает участников доски
func (h *InviteHandler) GetMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), boardID, userID, model.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to view board members"})
		return
	}

	members, err := h.memberRepo.GetBoardMembers(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board members"})
		return
	}

	type memberResponse struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID: member.UserID.String(),
			Name:   member.User.Name,
			Email:  member.User.Email,
			Role:   member.Role,
		})
	}

	c.JSON(http.StatusOK, response)
}

// RemoveMember удаляет участника доски
func (h *InviteHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boardID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	memberID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	isOwner, err := h.memberRepo.IsProjectOwner(c.Request.Context(), boardID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !isOwner && userID != memberID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to remove board members"})
		return
	}

	if err := h.memberRepo.Remove(c.Request.Context(), boardID, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove board member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
