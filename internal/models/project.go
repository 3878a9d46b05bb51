package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
)

type ProjectTemplate struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	TeamID      *uuid.UUID       `json:"team_id,omitempty"`
	Plugins     []TemplatePlugin `json:"plugins"`
	CreatedBy   string           `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

type TemplatePlugin struct {
	PluginID uuid.UUID `json:"plugin_id"`
	Version  string    `json:"version"`
}

type Project struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	TeamID          uuid.UUID        `json:"team_id"`
	SiteID          *uuid.UUID       `json:"site_id,omitempty"`
	TemplateID      *uuid.UUID       `json:"template_id,omitempty"`
	Status          string           `json:"status"`
	Priority        string           `json:"priority"`
	Plugins         []ProjectPlugin  `json:"plugins"`
	AssignedMembers []AssignedMember `json:"assigned_members"`
	TimelineEvents  []TimelineEvent  `json:"timeline_events"`
	Notes           string           `json:"notes"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type ProjectPlugin struct {
	PluginID  uuid.UUID `json:"plugin_id"`
	Version   string    `json:"version"`
	Installed bool      `json:"installed"`
}

type AssignedMember struct {
	UserID        uuid.UUID `json:"user_id"`
	RoleOnProject string    `json:"role_on_project"`
}

type TimelineEvent struct {
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"created_by"`
}
