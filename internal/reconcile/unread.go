package reconcile

import (
	"slices"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

// Viewer is the request-scoped identity messages are addressed against.
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
	TeamIDs []uuid.UUID
}

// IsPersonal reports a message addressed to the viewer as a person.
func IsPersonal(m models.Message, v Viewer) bool {
	switch m.RecipientType {
	case models.RecipientUser:
		return m.RecipientID != nil && *m.RecipientID == v.UserID
	case models.RecipientMultipleUsers, models.RecipientAllUsers, models.RecipientAllTeamOwners:
		return slices.Contains(m.RecipientIDs, v.UserID)
	case models.RecipientAdmin:
		return v.IsAdmin
	}
	return false
}

// IsTeamMessage reports a message addressed to the inbox of one of the viewer's teams.
func IsTeamMessage(m models.Message, v Viewer) bool {
	switch m.RecipientType {
	case models.RecipientTeam:
		return m.RecipientID != nil && slices.Contains(v.TeamIDs, *m.RecipientID)
	case models.RecipientMultipleTeams, models.RecipientAllTeamInboxes:
		for _, id := range m.RecipientIDs {
			if slices.Contains(v.TeamIDs, id) {
				return true
			}
		}
	}
	return false
}

func AddressedTo(m models.Message, v Viewer) bool {
	return IsPersonal(m, v) || IsTeamMessage(m, v)
}

// CountUnread counts each unread message addressed to the viewer once, however
// many ways it reaches them. Messages the viewer sent are not counted.
func CountUnread(messages []models.Message, v Viewer) int {
	n := 0
	for _, m := range messages {
		if m.IsRead || m.SenderID == v.UserID {
			continue
		}
		if AddressedTo(m, v) {
			n++
		}
	}
	return n
}
