package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/service"
	"messaging-service/internal/telemetry"
)

// MessageHandler exposes the conversation operations over HTTP.
type MessageHandler struct {
	svc   *service.ConversationService
	audit *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(svc *service.ConversationService, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{svc: svc, audit: audit}
}

// Send persists a new message and fans it out to live connections.
func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		Receiver string `json:"receiver" binding:"required"`
		Content  string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	msg, err := h.svc.Send(c.Request.Context(), userID, req.Receiver, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "message sent", requestIDFromContext(c), userID)
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "data": msg})
}

// GetConversation returns a page of the conversation with another user.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID := c.GetString("userID")
	otherUserID := c.Param("other_user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, pagination, err := h.svc.ListConversation(c.Request.Context(), userID, otherUserID, page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Messages retrieved successfully",
		"data": gin.H{
			"messages":   msgs,
			"pagination": pagination,
		},
	})
}

// Update mutates message content (sender only).
func (h *MessageHandler) Update(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	msg, err := h.svc.Update(c.Request.Context(), userID, c.Param("message_id"), req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message updated successfully", "data": msg})
}

// Delete removes a message (sender only).
func (h *MessageHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("message_id")); err != nil {
		writeServiceError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "message deleted", requestIDFromContext(c), userID)
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully", "data": nil})
}

// MarkRead transitions a message to read (receiver only).
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")
	msg, err := h.svc.MarkRead(c.Request.Context(), userID, c.Param("message_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read", "data": msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Store faults fall through as 500s; ownership and not-found errors are
// never swallowed.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
