package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PluginSourceUpload    = "upload"
	PluginSourceWPLibrary = "wplibrary"
)

type Plugin struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Slug            string               `json:"slug"`
	Description     string               `json:"description"`
	Author          string               `json:"author"`
	AuthorURL       string               `json:"author_url"`
	Owner                                // owner_type, owner_id
	Source          string               `json:"source"`
	Versions        []PluginVersion      `json:"versions"`
	LatestVersion   *string              `json:"latest_version"`
	InstalledOn     []PluginInstallation `json:"installed_on"`
	SharedWithTeams []uuid.UUID          `json:"shared_with_teams"`
	CreatedBy       string               `json:"created_by"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// PluginVersion entries are kept in ascending creation order; the last one is
// the plugin's latest version.
type PluginVersion struct {
	Version     string    `json:"version"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsCorrupt reports a version that cannot be installed because it has no archive.
func (v PluginVersion) IsCorrupt() bool {
	return v.DownloadURL == ""
}

type PluginInstallation struct {
	ID          uuid.UUID `json:"id"`
	PluginID    uuid.UUID `json:"plugin_id"`
	SiteID      uuid.UUID `json:"site_id"`
	Version     string    `json:"version"`
	IsActive    bool      `json:"is_active"`
	InstalledAt time.Time `json:"installed_at"`
}
