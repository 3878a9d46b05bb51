package dto

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description"`
	TeamID      *uuid.UUID              `json:"team_id"`
	Plugins     []models.TemplatePlugin `json:"plugins" validate:"dive"`
}

type CreateProjectRequest struct {
	Title       string     `json:"title" validate:"required,max=300"`
	Description string     `json:"description"`
	TeamID      uuid.UUID  `json:"team_id" validate:"required"`
	SiteID      *uuid.UUID `json:"site_id"`
	TemplateID  *uuid.UUID `json:"template_id"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low normal high"`
	Notes       string     `json:"notes"`
}
