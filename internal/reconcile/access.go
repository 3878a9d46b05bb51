package reconcile

import (
	"slices"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

// CanManage reports whether a user may modify a site or plugin: it is theirs,
// or it belongs to one of their teams.
func CanManage(owner models.Owner, userID uuid.UUID, teamIDs []uuid.UUID) bool {
	switch owner.Type {
	case models.OwnerTypeUser:
		return owner.ID == userID
	case models.OwnerTypeTeam:
		return slices.Contains(teamIDs, owner.ID)
	default:
		return false
	}
}

// CanView additionally admits teams the entity is shared with.
func CanView(owner models.Owner, sharedWith []uuid.UUID, userID uuid.UUID, teamIDs []uuid.UUID) bool {
	if CanManage(owner, userID, teamIDs) {
		return true
	}
	for _, id := range sharedWith {
		if slices.Contains(teamIDs, id) {
			return true
		}
	}
	return false
}
