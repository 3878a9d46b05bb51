package reconcile

import (
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teamFixture struct {
	owner, sender, mate, pending models.User
	admin                        models.User
	team                         models.Team
	dir                          Directory
}

func newTeamFixture() teamFixture {
	f := teamFixture{
		owner:   models.User{ID: uuid.New(), Email: "owner@example.com", Role: models.RoleUser},
		sender:  models.User{ID: uuid.New(), Email: "sender@example.com", Role: models.RoleUser},
		mate:    models.User{ID: uuid.New(), Email: "mate@example.com", Role: models.RoleUser},
		pending: models.User{ID: uuid.New(), Email: "pending@example.com", Role: models.RoleUser},
		admin:   models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin},
	}
	f.team = models.Team{ID: uuid.New(), OwnerID: f.owner.ID}
	f.dir = Directory{
		Users: []models.User{f.owner, f.sender, f.mate, f.pending, f.admin},
		Teams: []models.Team{f.team},
		Members: map[uuid.UUID][]models.TeamMember{
			f.team.ID: {
				{UserID: f.owner.ID, Status: models.MemberStatusActive},
				{UserID: f.sender.ID, Status: models.MemberStatusActive},
				{UserID: f.mate.ID, Status: models.MemberStatusActive},
				{UserID: f.mate.ID, Status: models.MemberStatusActive},
				{UserID: f.pending.ID, Status: models.MemberStatusPending},
			},
		},
	}
	return f
}

func TestExpandRecipients_TeammatesAll(t *testing.T) {
	f := newTeamFixture()

	got, err := ExpandRecipients(f.sender, Audience{
		Type:          models.RecipientTeammates,
		TeamID:        &f.team.ID,
		TeammatesMode: TeammatesAll,
	}, f.dir)

	require.NoError(t, err)
	assert.Equal(t, models.RecipientMultipleUsers, got.Type)
	assert.ElementsMatch(t, []uuid.UUID{f.owner.ID, f.mate.ID}, got.RecipientIDs)
	require.NotNil(t, got.TeamID)
	assert.Equal(t, f.team.ID, *got.TeamID)
}

func TestExpandRecipients_TeammatesAllIsDeterministic(t *testing.T) {
	f := newTeamFixture()
	a := Audience{Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesAll}

	first, err := ExpandRecipients(f.sender, a, f.dir)
	require.NoError(t, err)
	second, err := ExpandRecipients(f.sender, a, f.dir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExpandRecipients_TeammatesModes(t *testing.T) {
	f := newTeamFixture()

	inbox, err := ExpandRecipients(f.sender, Audience{Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesTeamInbox}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, models.RecipientTeam, inbox.Type)
	assert.Equal(t, f.team.ID, *inbox.RecipientID)
	assert.Equal(t, f.team.ID, *inbox.TeamID)

	owner, err := ExpandRecipients(f.sender, Audience{Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesOwner}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, models.RecipientUser, owner.Type)
	assert.Equal(t, f.owner.ID, *owner.RecipientID)
	assert.Equal(t, f.owner.Email, owner.RecipientEmail)

	one, err := ExpandRecipients(f.sender, Audience{Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesIndividual, RecipientID: &f.mate.ID}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, f.mate.ID, *one.RecipientID)

	sel, err := ExpandRecipients(f.sender, Audience{
		Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesSelection,
		RecipientIDs: []uuid.UUID{f.mate.ID, f.mate.ID},
	}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.mate.ID}, sel.RecipientIDs)
}

func TestExpandRecipients_TeammatesRejectsOutsiders(t *testing.T) {
	f := newTeamFixture()

	_, err := ExpandRecipients(f.sender, Audience{
		Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesIndividual,
		RecipientID: &f.pending.ID,
	}, f.dir)
	assert.ErrorIs(t, err, ErrNotTeammate)

	_, err = ExpandRecipients(f.pending, Audience{
		Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesAll,
	}, f.dir)
	assert.ErrorIs(t, err, ErrNotTeamMember)

	_, err = ExpandRecipients(f.owner, Audience{
		Type: models.RecipientTeammates, TeamID: &f.team.ID, TeammatesMode: TeammatesOwner,
	}, f.dir)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestExpandRecipients_BroadcastRequiresAdmin(t *testing.T) {
	f := newTeamFixture()

	_, err := ExpandRecipients(f.sender, Audience{Type: models.RecipientAllUsers}, f.dir)
	assert.ErrorIs(t, err, ErrAdminOnly)

	got, err := ExpandRecipients(f.admin, Audience{Type: models.RecipientAllUsers}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, models.RecipientAllUsers, got.Type)
	assert.Len(t, got.RecipientIDs, 4)
	assert.NotContains(t, got.RecipientIDs, f.admin.ID)
}

func TestExpandRecipients_AdminBroadcasts(t *testing.T) {
	f := newTeamFixture()
	second := models.Team{ID: uuid.New(), OwnerID: f.owner.ID}
	f.dir.Teams = append(f.dir.Teams, second)

	owners, err := ExpandRecipients(f.admin, Audience{Type: models.RecipientAllTeamOwners}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.owner.ID}, owners.RecipientIDs)

	inboxes, err := ExpandRecipients(f.admin, Audience{Type: models.RecipientAllTeamInboxes}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.team.ID, second.ID}, inboxes.RecipientIDs)

	_, err = ExpandRecipients(f.admin, Audience{Type: models.RecipientMultipleTeams, RecipientIDs: []uuid.UUID{uuid.New()}}, f.dir)
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = ExpandRecipients(f.admin, Audience{Type: models.RecipientMultipleUsers}, f.dir)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestExpandRecipients_AdminAndTeamInbox(t *testing.T) {
	f := newTeamFixture()

	got, err := ExpandRecipients(f.sender, Audience{Type: models.RecipientAdmin}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, models.RecipientAdmin, got.Type)
	assert.Nil(t, got.RecipientID)

	_, err = ExpandRecipients(f.pending, Audience{Type: models.RecipientTeam, RecipientID: &f.team.ID}, f.dir)
	assert.ErrorIs(t, err, ErrNotTeamMember)

	_, err = ExpandRecipients(f.sender, Audience{Type: "carrier_pigeon"}, f.dir)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestExpandRecipients_TeammatesSkipDeletedUsers(t *testing.T) {
	f := newTeamFixture()
	// owner deleted: the team and member rows outlive the user row
	f.dir.Users = []models.User{f.sender, f.mate, f.pending, f.admin}

	all, err := ExpandRecipients(f.sender, Audience{
		Type:          models.RecipientTeammates,
		TeamID:        &f.team.ID,
		TeammatesMode: TeammatesAll,
	}, f.dir)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.mate.ID}, all.RecipientIDs)

	_, err = ExpandRecipients(f.sender, Audience{
		Type:          models.RecipientTeammates,
		TeamID:        &f.team.ID,
		TeammatesMode: TeammatesOwner,
	}, f.dir)
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = ExpandRecipients(f.sender, Audience{
		Type:          models.RecipientTeammates,
		TeamID:        &f.team.ID,
		TeammatesMode: TeammatesIndividual,
		RecipientID:   &f.owner.ID,
	}, f.dir)
	assert.ErrorIs(t, err, ErrNotTeammate)
}
