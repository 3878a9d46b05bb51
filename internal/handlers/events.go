package handlers

import (
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/sse"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const unreadEvent = "unread"

// EventsHandler streams unread message and notification counts. Counts are
// pushed on connect, on every poll tick and whenever the hub reports a change.
type EventsHandler struct {
	hub                 *sse.Hub
	messageService      MessageServiceInterface
	notificationService NotificationServiceInterface
	teamService         TeamServiceInterface
	interval            time.Duration
}

func NewEventsHandler(hub *sse.Hub, messageService MessageServiceInterface, notificationService NotificationServiceInterface,
	teamService TeamServiceInterface, interval time.Duration) *EventsHandler {
	return &EventsHandler{
		hub:                 hub,
		messageService:      messageService,
		notificationService: notificationService,
		teamService:         teamService,
		interval:            interval,
	}
}

func (h *EventsHandler) unread(c *drift.Context, user *models.User) (dto.UnreadEvent, error) {
	ctx := c.Request.Context()
	teamIDs, err := h.teamService.TeamIDsForUser(ctx, user.ID)
	if err != nil {
		return dto.UnreadEvent{}, err
	}
	messages, err := h.messageService.UnreadCount(ctx, viewerOf(user, teamIDs))
	if err != nil {
		return dto.UnreadEvent{}, err
	}
	notifications, err := h.notificationService.UnreadCount(ctx, user.ID)
	if err != nil {
		return dto.UnreadEvent{}, err
	}
	return dto.UnreadEvent{Messages: messages, Notifications: notifications}, nil
}

func (h *EventsHandler) Stream(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	counts, err := h.unread(c, user)
	if err != nil {
		internalError(c, err, "failed to count unread items")
		return
	}

	sseCtx := c.SSE()
	if err := sseCtx.SendJSON(counts, unreadEvent, ""); err != nil {
		return
	}

	client := &sse.Client{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Send:   make(chan sse.Event, 1),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case _, ok := <-client.Send:
			if !ok {
				return
			}
		case <-ticker.C:
		}

		counts, err := h.unread(c, user)
		if err != nil {
			// the client reconnects and retries
			return
		}
		if err := sseCtx.SendJSON(counts, unreadEvent, ""); err != nil {
			return
		}
	}
}

// Health is the unauthenticated liveness probe.
func Health(c *drift.Context) {
	_ = c.JSON(200, map[string]string{"status": "ok"})
}
