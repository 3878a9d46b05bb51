package models

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	IsBlocked   bool         `json:"is_blocked"`
	Settings    TeamSettings `json:"settings"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type TeamSettings struct {
	AllowMemberInvites bool   `json:"allow_member_invites"`
	DefaultTeamRoleID  string `json:"default_team_role_id"`
}

// TeamMember entries double as invite placeholders: an invited user is added
// with MemberStatusPending and flipped to MemberStatusActive on acceptance.
type TeamMember struct {
	ID         uuid.UUID `json:"id"`
	TeamID     uuid.UUID `json:"team_id"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	TeamRoleID string    `json:"team_role_id"`
	Status     string    `json:"status"`
	JoinedAt   time.Time `json:"joined_at"`
}

func (m TeamMember) IsActive() bool {
	return m.Status == MemberStatusActive
}

const (
	MemberStatusPending = "pending"
	MemberStatusActive  = "active"
)

const (
	TeamRoleOwner  = "Owner"
	TeamRoleMember = "Member"
)

type TeamInvite struct {
	ID           uuid.UUID  `json:"id"`
	TeamID       uuid.UUID  `json:"team_id"`
	InvitedEmail string     `json:"invited_email"`
	InvitedBy    uuid.UUID  `json:"invited_by"`
	TeamRoleID   string     `json:"team_role_id"`
	Status       string     `json:"status"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Team         *Team      `json:"team,omitempty"`
}

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)
