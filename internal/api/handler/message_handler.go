package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/policy"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// MessageHandler handles HTTP requests for direct messages.
type MessageHandler struct {
	service ports.MessageService
}

func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send handles POST /messages. The sender is always the caller.
func (h *MessageHandler) Send(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		SenderID:    p.ID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		IsEncrypted: req.IsEncrypted,
		Hash:        req.Hash,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMessageResponse(*msg))
}

// Get handles GET /messages/:id.
func (h *MessageHandler) Get(c echo.Context) error {
	msg, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMessageResponse(*msg))
}

// ForUser handles GET /messages/user/:userId.
func (h *MessageHandler) ForUser(c echo.Context) error {
	userID := c.Param("userId")
	if err := authorizeOwner(c, userID); err != nil {
		return err
	}
	msgs, err := h.service.ForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

// Unread handles GET /messages/user/:userId/unread.
func (h *MessageHandler) Unread(c echo.Context) error {
	userID := c.Param("userId")
	if err := authorizeOwner(c, userID); err != nil {
		return err
	}
	msgs, err := h.service.Unread(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

// Conversation handles GET /messages/conversation/:userId1/:userId2.
func (h *MessageHandler) Conversation(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	a, b := c.Param("userId1"), c.Param("userId2")
	if !policy.CanAccessMessage(p, a, b) {
		return domain.ErrForbidden
	}

	msgs, err := h.service.Conversation(c.Request().Context(), a, b)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

// MarkRead handles PATCH /messages/:id/read. Only the receiver or an admin
// may mark a message read.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	msg, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !policy.CanAccessOwnedResource(p, msg.ReceiverID) {
		return domain.ErrForbidden
	}

	updated, err := h.service.MarkRead(c.Request().Context(), msg.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMessageResponse(*updated))
}

// Delete handles DELETE /messages/:id.
func (h *MessageHandler) Delete(c echo.Context) error {
	msg, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), msg.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MessageHandler) authorized(c echo.Context, id string) (*ports.MessageView, error) {
	p, err := caller(c)
	if err != nil {
		return nil, err
	}
	msg, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessMessage(p, msg.SenderID, msg.ReceiverID) {
		return nil, domain.ErrForbidden
	}
	return msg, nil
}
