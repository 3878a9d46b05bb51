package reconcile

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

// OwnerIndex answers "does this owner still exist" for a snapshot of the
// user and team tables.
type OwnerIndex struct {
	users map[uuid.UUID]struct{}
	teams map[uuid.UUID]struct{}
}

func NewOwnerIndex(userIDs, teamIDs []uuid.UUID) *OwnerIndex {
	ix := &OwnerIndex{
		users: make(map[uuid.UUID]struct{}, len(userIDs)),
		teams: make(map[uuid.UUID]struct{}, len(teamIDs)),
	}
	for _, id := range userIDs {
		ix.users[id] = struct{}{}
	}
	for _, id := range teamIDs {
		ix.teams[id] = struct{}{}
	}
	return ix
}

// Exists reports whether a record of the owner's kind has the owner's id.
// An owner of unknown kind never exists.
func (ix *OwnerIndex) Exists(o models.Owner) bool {
	switch o.Type {
	case models.OwnerTypeUser:
		_, ok := ix.users[o.ID]
		return ok
	case models.OwnerTypeTeam:
		_, ok := ix.teams[o.ID]
		return ok
	default:
		return false
	}
}

func (ix *OwnerIndex) IsOrphaned(o models.Owner) bool {
	return !ix.Exists(o)
}

func OrphanedSites(sites []models.Site, ix *OwnerIndex) []models.Site {
	var out []models.Site
	for _, s := range sites {
		if ix.IsOrphaned(s.Owner) {
			out = append(out, s)
		}
	}
	return out
}

func OrphanedPlugins(plugins []models.Plugin, ix *OwnerIndex) []models.Plugin {
	var out []models.Plugin
	for _, p := range plugins {
		if ix.IsOrphaned(p.Owner) {
			out = append(out, p)
		}
	}
	return out
}
