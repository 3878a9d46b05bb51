package dto

import "github.com/google/uuid"

type CreatePluginRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	Slug            string      `json:"slug" validate:"required,max=200"`
	Description     string      `json:"description"`
	Author          string      `json:"author"`
	AuthorURL       string      `json:"author_url" validate:"omitempty,url"`
	OwnerType       string      `json:"owner_type" validate:"required,oneof=user team"`
	OwnerID         uuid.UUID   `json:"owner_id" validate:"required"`
	Source          string      `json:"source" validate:"required,oneof=upload wplibrary"`
	Version         string      `json:"version" validate:"required_with=DownloadURL"`
	DownloadURL     string      `json:"download_url" validate:"omitempty,url"`
	SharedWithTeams []uuid.UUID `json:"shared_with_teams"`
}

type AddVersionRequest struct {
	Version     string `json:"version" validate:"required,max=50"`
	DownloadURL string `json:"download_url" validate:"required,url"`
}

type InstallPluginRequest struct {
	SiteIDs []uuid.UUID `json:"site_ids" validate:"required,min=1,dive,required"`
	Version string      `json:"version"`
}

type ToggleResponse struct {
	SiteID   uuid.UUID `json:"site_id"`
	IsActive bool      `json:"is_active"`
}
