package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeTeamInvite = "team_invite"
	NotificationTypeInfo       = "info"
)

type Notification struct {
	ID           uuid.UUID  `json:"id"`
	RecipientID  uuid.UUID  `json:"recipient_id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Type         string     `json:"type"`
	TeamInviteID *uuid.UUID `json:"team_invite_id,omitempty"`
	IsRead       bool       `json:"is_read"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ActivityLog is an append-only audit entry written next to most mutations.
type ActivityLog struct {
	ID         uuid.UUID  `json:"id"`
	UserEmail  string     `json:"user_email"`
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Details    string     `json:"details"`
	CreatedAt  time.Time  `json:"created_at"`
}

const (
	EntityUser    = "user"
	EntityTeam    = "team"
	EntitySite    = "site"
	EntityPlugin  = "plugin"
	EntityProject = "project"
	EntityMessage = "message"
)
