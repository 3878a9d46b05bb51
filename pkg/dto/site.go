package dto

import "github.com/google/uuid"

type CreateSiteRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	URL             string      `json:"url" validate:"required,url"`
	OwnerType       string      `json:"owner_type" validate:"required,oneof=user team"`
	OwnerID         uuid.UUID   `json:"owner_id" validate:"required"`
	SharedWithTeams []uuid.UUID `json:"shared_with_teams"`
}

type UpdateSiteRequest struct {
	Name            *string      `json:"name" validate:"omitempty,min=1,max=200"`
	URL             *string      `json:"url" validate:"omitempty,url"`
	SharedWithTeams *[]uuid.UUID `json:"shared_with_teams"`
}

// TransferRequest reassigns a site or plugin to another user or team.
type TransferRequest struct {
	OwnerType string    `json:"owner_type" validate:"required,oneof=user team"`
	OwnerID   uuid.UUID `json:"owner_id" validate:"required"`
}
