package models

import (
	"time"

	"github.com/google/uuid"
)

// Stored recipient types. RecipientTeammates is only ever a request value:
// it is resolved to one of the stored types at send time.
const (
	RecipientAdmin          = "admin"
	RecipientUser           = "user"
	RecipientTeam           = "team"
	RecipientMultipleUsers  = "multiple_users"
	RecipientAllUsers       = "all_users"
	RecipientAllTeamOwners  = "all_team_owners"
	RecipientMultipleTeams  = "multiple_teams"
	RecipientAllTeamInboxes = "all_team_inboxes"
	RecipientTeammates      = "teammates"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type Message struct {
	ID             uuid.UUID       `json:"id"`
	SenderID       uuid.UUID       `json:"sender_id"`
	SenderEmail    string          `json:"sender_email"`
	SenderName     string          `json:"sender_name"`
	RecipientType  string          `json:"recipient_type"`
	RecipientID    *uuid.UUID      `json:"recipient_id,omitempty"`
	RecipientEmail string          `json:"recipient_email,omitempty"`
	RecipientIDs   []uuid.UUID     `json:"recipient_ids"`
	TeamID         *uuid.UUID      `json:"team_id,omitempty"`
	Subject        string          `json:"subject"`
	Body           string          `json:"message"`
	Priority       string          `json:"priority"`
	Category       string          `json:"category"`
	IsRead         bool            `json:"is_read"`
	Replies        []MessageReply  `json:"replies"`
	Context        *MessageContext `json:"context,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type MessageReply struct {
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageContext references the site, plugin, team or user that prompted a message.
type MessageContext struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
