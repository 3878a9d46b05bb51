package handlers

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type MessageHandler struct {
	messageService MessageServiceInterface
	teamService    TeamServiceInterface
	notifier       UnreadNotifier
}

func NewMessageHandler(messageService MessageServiceInterface, teamService TeamServiceInterface, notifier UnreadNotifier) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		teamService:    teamService,
		notifier:       notifier,
	}
}

// notify nudges the event streams of everyone a message may concern. Direct
// audiences are named; group audiences nudge every stream.
func (h *MessageHandler) notify(msg *models.Message, extra ...uuid.UUID) {
	if h.notifier == nil {
		return
	}
	switch {
	case msg.RecipientType == models.RecipientUser && msg.RecipientID != nil:
		h.notifier.NotifyUnread(append(extra, *msg.RecipientID)...)
	case msg.RecipientType == models.RecipientMultipleUsers:
		h.notifier.NotifyUnread(append(extra, msg.RecipientIDs...)...)
	default:
		h.notifier.NotifyUnread()
	}
}

// List returns the inbox, or the sent box with ?box=sent.
func (h *MessageHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if c.QueryParam("box") == "sent" {
		messages, err := h.messageService.Sent(c.Request.Context(), user.ID)
		if err != nil {
			internalError(c, err, "failed to list messages")
			return
		}
		_ = c.JSON(200, messages)
		return
	}

	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	messages, err := h.messageService.Inbox(c.Request.Context(), v)
	if err != nil {
		internalError(c, err, "failed to list messages")
		return
	}

	_ = c.JSON(200, messages)
}

func (h *MessageHandler) Send(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), user, services.MessageInput{
		Audience: reconcile.Audience{
			Type:          req.RecipientType,
			RecipientID:   req.RecipientID,
			RecipientIDs:  req.RecipientIDs,
			TeamID:        req.TeamID,
			TeammatesMode: req.TeammatesMode,
		},
		Subject:  req.Subject,
		Body:     req.Message,
		Priority: req.Priority,
		Category: req.Category,
		Context:  req.Context,
	})
	if err != nil {
		serviceError(c, err, "failed to send message")
		return
	}
	h.notify(msg)

	_ = c.JSON(201, msg)
}

func (h *MessageHandler) Get(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	msg, err := h.messageService.Get(c.Request.Context(), v, messageID)
	if err != nil {
		serviceError(c, err, "failed to get message")
		return
	}

	_ = c.JSON(200, msg)
}

func (h *MessageHandler) UnreadCount(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	n, err := h.messageService.UnreadCount(c.Request.Context(), v)
	if err != nil {
		internalError(c, err, "failed to count messages")
		return
	}

	_ = c.JSON(200, dto.CountResponse{Count: n})
}

func (h *MessageHandler) MarkRead(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), v, messageID); err != nil {
		serviceError(c, err, "failed to mark message read")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "message marked read"})
}

func (h *MessageHandler) Reply(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}

	var req dto.ReplyRequest
	if !bindJSON(c, &req) {
		return
	}

	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	msg, err := h.messageService.Reply(c.Request.Context(), user, v, messageID, req.Message)
	if err != nil {
		serviceError(c, err, "failed to reply")
		return
	}
	h.notify(msg, msg.SenderID)

	_ = c.JSON(201, msg)
}
