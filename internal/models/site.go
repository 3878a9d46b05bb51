package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConnectionStatusActive   = "active"
	ConnectionStatusInactive = "inactive"
	ConnectionStatusError    = "error"
)

type Site struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	URL                 string      `json:"url"`
	APIKey              string      `json:"api_key,omitempty"`
	Owner                           // owner_type, owner_id
	SharedWithTeams     []uuid.UUID `json:"shared_with_teams"`
	ConnectionStatus    string      `json:"connection_status"`
	WPVersion           *string     `json:"wp_version,omitempty"`
	ConnectionCheckedAt *time.Time  `json:"connection_checked_at,omitempty"`
	CreatedBy           string      `json:"created_by"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}
