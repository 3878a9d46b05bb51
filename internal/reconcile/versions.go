package reconcile

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

type CorruptVersion struct {
	PluginID   uuid.UUID `json:"plugin_id"`
	PluginName string    `json:"plugin_name"`
	Version    string    `json:"version"`
	Index      int       `json:"index"`
}

func CorruptVersions(plugins []models.Plugin) []CorruptVersion {
	var out []CorruptVersion
	for _, p := range plugins {
		for i, v := range p.Versions {
			if v.IsCorrupt() {
				out = append(out, CorruptVersion{
					PluginID:   p.ID,
					PluginName: p.Name,
					Version:    v.Version,
					Index:      i,
				})
			}
		}
	}
	return out
}

// RemoveCorruptVersions drops every entry without a download URL, keeping the
// order of the rest, and recomputes the latest version from the new last entry.
func RemoveCorruptVersions(versions []models.PluginVersion) (kept, removed []models.PluginVersion, latest *string) {
	kept = make([]models.PluginVersion, 0, len(versions))
	for _, v := range versions {
		if v.IsCorrupt() {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	return kept, removed, LatestVersion(kept)
}

// LatestVersion is the version of the last entry, or nil for an empty list.
func LatestVersion(versions []models.PluginVersion) *string {
	if len(versions) == 0 {
		return nil
	}
	v := versions[len(versions)-1].Version
	return &v
}
