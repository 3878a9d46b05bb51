package handlers

import (
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	unreadOnly := c.QueryParam("unread") == "true"
	notifications, err := h.notificationService.List(c.Request.Context(), user.ID, unreadOnly)
	if err != nil {
		internalError(c, err, "failed to list notifications")
		return
	}

	_ = c.JSON(200, notifications)
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := pathID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), user.ID, notificationID); err != nil {
		serviceError(c, err, "failed to mark notification read")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, err, "failed to mark notifications read")
		return
	}

	_ = c.JSON(200, dto.CountResponse{Count: int(n)})
}
