package dto

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

type SendMessageRequest struct {
	RecipientType string                 `json:"recipient_type" validate:"required"`
	RecipientID   *uuid.UUID             `json:"recipient_id"`
	RecipientIDs  []uuid.UUID            `json:"recipient_ids"`
	TeamID        *uuid.UUID             `json:"team_id"`
	TeammatesMode string                 `json:"teammates_mode"`
	Subject       string                 `json:"subject" validate:"required,max=300"`
	Message       string                 `json:"message" validate:"required"`
	Priority      string                 `json:"priority" validate:"omitempty,oneof=low normal high"`
	Category      string                 `json:"category" validate:"max=50"`
	Context       *models.MessageContext `json:"context"`
}

type ReplyRequest struct {
	Message string `json:"message" validate:"required"`
}

type CountResponse struct {
	Count int `json:"count"`
}

// UnreadEvent is pushed over /events on every poll tick.
type UnreadEvent struct {
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
}
