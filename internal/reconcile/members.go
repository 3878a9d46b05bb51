// Package reconcile holds the ownership and membership rules shared by the
// services. Everything here works on in-memory snapshots and never touches the
// database or the clock.
package reconcile

import (
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

type MemberChange int

const (
	MemberUnchanged MemberChange = iota
	MemberActivated
	MemberAppended
)

func (c MemberChange) String() string {
	switch c {
	case MemberActivated:
		return "activated"
	case MemberAppended:
		return "appended"
	default:
		return "unchanged"
	}
}

// ReconcileMembers applies an accepted invite to a team's member list. An
// existing entry for the acceptor is flipped to active in place and keeps its
// role; otherwise one active entry with the invite's role is appended. The
// input slice is not modified. The returned index points at the acceptor's entry.
func ReconcileMembers(members []models.TeamMember, invite models.TeamInvite, acceptor models.User, now time.Time) ([]models.TeamMember, int, MemberChange) {
	out := make([]models.TeamMember, len(members), len(members)+1)
	copy(out, members)

	for i := range out {
		if out[i].UserID != acceptor.ID {
			continue
		}
		if out[i].IsActive() {
			return out, i, MemberUnchanged
		}
		out[i].Status = models.MemberStatusActive
		return out, i, MemberActivated
	}

	role := invite.TeamRoleID
	if role == "" {
		role = models.TeamRoleMember
	}
	out = append(out, models.TeamMember{
		TeamID:     invite.TeamID,
		UserID:     acceptor.ID,
		Email:      acceptor.Email,
		TeamRoleID: role,
		Status:     models.MemberStatusActive,
		JoinedAt:   now,
	})
	return out, len(out) - 1, MemberAppended
}

// IsEffectiveMember reports whether userID owns the team or holds an active entry.
func IsEffectiveMember(team models.Team, members []models.TeamMember, userID uuid.UUID) bool {
	if team.OwnerID == userID {
		return true
	}
	for _, m := range members {
		if m.UserID == userID && m.IsActive() {
			return true
		}
	}
	return false
}

// UserTeamIDs returns the ids of the teams userID is effectively in, in team order.
func UserTeamIDs(teams []models.Team, membersByTeam map[uuid.UUID][]models.TeamMember, userID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, t := range teams {
		if IsEffectiveMember(t, membersByTeam[t.ID], userID) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Teammates lists everyone a sender can reach inside a team: the owner and the
// active members, without the sender and without duplicates.
func Teammates(team models.Team, members []models.TeamMember, senderID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(members)+1)
	var out []uuid.UUID

	add := func(id uuid.UUID) {
		if id == senderID || id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(team.OwnerID)
	for _, m := range members {
		if m.IsActive() {
			add(m.UserID)
		}
	}
	return out
}
