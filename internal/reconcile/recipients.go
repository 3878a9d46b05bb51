package reconcile

import (
	"errors"
	"fmt"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

// Sub-modes of a teammates message.
const (
	TeammatesIndividual = "individual"
	TeammatesAll        = "all"
	TeammatesTeamInbox  = "team_inbox"
	TeammatesOwner      = "owner"
	TeammatesSelection  = "selection"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrNoRecipients     = errors.New("message has no recipients")
	ErrAdminOnly        = errors.New("recipient type requires admin role")
	ErrNotTeammate      = errors.New("recipient is not a teammate")
	ErrNotTeamMember    = errors.New("sender is not a member of the team")
)

// Audience is the logical target of a message before expansion.
type Audience struct {
	Type          string
	RecipientID   *uuid.UUID
	RecipientIDs  []uuid.UUID
	TeamID        *uuid.UUID
	TeammatesMode string
}

// Directory is the snapshot of users and teams an Audience is resolved against.
type Directory struct {
	Users   []models.User
	Teams   []models.Team
	Members map[uuid.UUID][]models.TeamMember
}

func (d Directory) user(id uuid.UUID) (models.User, bool) {
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (d Directory) team(id uuid.UUID) (models.Team, bool) {
	for _, t := range d.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}

// Recipients are the stored addressing fields of a message.
type Recipients struct {
	Type           string
	RecipientID    *uuid.UUID
	RecipientEmail string
	RecipientIDs   []uuid.UUID
	TeamID         *uuid.UUID
}

// ExpandRecipients resolves an Audience into concrete addressing once, at
// send time. Later membership changes do not affect the result.
func ExpandRecipients(sender models.User, a Audience, dir Directory) (Recipients, error) {
	switch a.Type {
	case models.RecipientAdmin:
		return Recipients{Type: models.RecipientAdmin}, nil

	case models.RecipientTeam:
		if a.RecipientID == nil {
			return Recipients{}, fmt.Errorf("%w: team id is required", ErrInvalidRecipient)
		}
		team, ok := dir.team(*a.RecipientID)
		if !ok {
			return Recipients{}, fmt.Errorf("%w: unknown team", ErrInvalidRecipient)
		}
		if !sender.IsAdmin() && !IsEffectiveMember(team, dir.Members[team.ID], sender.ID) {
			return Recipients{}, ErrNotTeamMember
		}
		return teamInbox(team.ID), nil

	case models.RecipientTeammates:
		return expandTeammates(sender, a, dir)

	case models.RecipientUser, models.RecipientMultipleUsers, models.RecipientAllUsers,
		models.RecipientAllTeamOwners, models.RecipientMultipleTeams, models.RecipientAllTeamInboxes:
		if !sender.IsAdmin() {
			return Recipients{}, ErrAdminOnly
		}
		return expandBroadcast(sender, a, dir)

	default:
		return Recipients{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecipient, a.Type)
	}
}

func expandBroadcast(sender models.User, a Audience, dir Directory) (Recipients, error) {
	switch a.Type {
	case models.RecipientUser:
		if a.RecipientID == nil {
			return Recipients{}, fmt.Errorf("%w: recipient id is required", ErrInvalidRecipient)
		}
		u, ok := dir.user(*a.RecipientID)
		if !ok {
			return Recipients{}, fmt.Errorf("%w: unknown user", ErrInvalidRecipient)
		}
		return direct(u, nil), nil

	case models.RecipientMultipleUsers:
		ids := dedupe(a.RecipientIDs, uuid.Nil)
		for _, id := range ids {
			if _, ok := dir.user(id); !ok {
				return Recipients{}, fmt.Errorf("%w: unknown user %s", ErrInvalidRecipient, id)
			}
		}
		return multi(models.RecipientMultipleUsers, ids, nil)

	case models.RecipientAllUsers:
		ids := make([]uuid.UUID, 0, len(dir.Users))
		for _, u := range dir.Users {
			ids = append(ids, u.ID)
		}
		return multi(models.RecipientAllUsers, dedupe(ids, sender.ID), nil)

	case models.RecipientAllTeamOwners:
		ids := make([]uuid.UUID, 0, len(dir.Teams))
		for _, t := range dir.Teams {
			ids = append(ids, t.OwnerID)
		}
		return multi(models.RecipientAllTeamOwners, dedupe(ids, sender.ID), nil)

	case models.RecipientMultipleTeams:
		ids := dedupe(a.RecipientIDs, uuid.Nil)
		for _, id := range ids {
			if _, ok := dir.team(id); !ok {
				return Recipients{}, fmt.Errorf("%w: unknown team %s", ErrInvalidRecipient, id)
			}
		}
		return multi(models.RecipientMultipleTeams, ids, nil)

	case models.RecipientAllTeamInboxes:
		ids := make([]uuid.UUID, 0, len(dir.Teams))
		for _, t := range dir.Teams {
			ids = append(ids, t.ID)
		}
		return multi(models.RecipientAllTeamInboxes, dedupe(ids, uuid.Nil), nil)
	}
	return Recipients{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecipient, a.Type)
}

func expandTeammates(sender models.User, a Audience, dir Directory) (Recipients, error) {
	if a.TeamID == nil {
		return Recipients{}, fmt.Errorf("%w: team id is required", ErrInvalidRecipient)
	}
	team, ok := dir.team(*a.TeamID)
	if !ok {
		return Recipients{}, fmt.Errorf("%w: unknown team", ErrInvalidRecipient)
	}
	members := dir.Members[team.ID]
	if !IsEffectiveMember(team, members, sender.ID) {
		return Recipients{}, ErrNotTeamMember
	}

	// Deleted users keep their member rows; only existing users are reachable.
	var mates []uuid.UUID
	isMate := make(map[uuid.UUID]models.User)
	for _, id := range Teammates(team, members, sender.ID) {
		if u, ok := dir.user(id); ok {
			mates = append(mates, id)
			isMate[id] = u
		}
	}
	teamID := team.ID

	switch a.TeammatesMode {
	case TeammatesIndividual:
		if a.RecipientID == nil {
			return Recipients{}, fmt.Errorf("%w: recipient id is required", ErrInvalidRecipient)
		}
		u, ok := isMate[*a.RecipientID]
		if !ok {
			return Recipients{}, ErrNotTeammate
		}
		return direct(u, &teamID), nil

	case TeammatesAll:
		return multi(models.RecipientMultipleUsers, mates, &teamID)

	case TeammatesTeamInbox:
		return teamInbox(teamID), nil

	case TeammatesOwner:
		if team.OwnerID == sender.ID {
			return Recipients{}, fmt.Errorf("%w: sender owns the team", ErrInvalidRecipient)
		}
		owner, ok := isMate[team.OwnerID]
		if !ok {
			return Recipients{}, fmt.Errorf("%w: team owner no longer exists", ErrInvalidRecipient)
		}
		return direct(owner, &teamID), nil

	case TeammatesSelection:
		ids := dedupe(a.RecipientIDs, uuid.Nil)
		for _, id := range ids {
			if _, ok := isMate[id]; !ok {
				return Recipients{}, ErrNotTeammate
			}
		}
		return multi(models.RecipientMultipleUsers, ids, &teamID)

	default:
		return Recipients{}, fmt.Errorf("%w: unknown teammates mode %q", ErrInvalidRecipient, a.TeammatesMode)
	}
}

func direct(u models.User, teamID *uuid.UUID) Recipients {
	id := u.ID
	return Recipients{
		Type:           models.RecipientUser,
		RecipientID:    &id,
		RecipientEmail: u.Email,
		TeamID:         teamID,
	}
}

func teamInbox(teamID uuid.UUID) Recipients {
	rid, tid := teamID, teamID
	return Recipients{Type: models.RecipientTeam, RecipientID: &rid, TeamID: &tid}
}

func multi(kind string, ids []uuid.UUID, teamID *uuid.UUID) (Recipients, error) {
	if len(ids) == 0 {
		return Recipients{}, ErrNoRecipients
	}
	return Recipients{Type: kind, RecipientIDs: ids, TeamID: teamID}, nil
}

// dedupe keeps first occurrences and drops skip.
func dedupe(ids []uuid.UUID, skip uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == skip || id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
