package integration

import (
	"context"
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamService(tdb *testutil.TestDB) *services.TeamService {
	return services.NewTeamService(tdb.DB, services.NewActivityService(tdb.DB), nil)
}

func TestTeamService_Integration_Create(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := newTeamService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)

	team, err := svc.Create(ctx, owner, "Agency", "")

	require.NoError(t, err)
	assert.Equal(t, owner.ID, team.OwnerID)

	isOwner, err := svc.IsOwner(ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isOwner)

	teamIDs, err := svc.TeamIDsForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Contains(t, teamIDs, team.ID)
}

func TestTeamService_Integration_AcceptInvite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := newTeamService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	invitee := fixtures.CreateUser(t)
	team := fixtures.CreateTeam(t, owner)
	invite := fixtures.CreateInvite(t, team, owner, invitee.Email)

	res, err := svc.AcceptInvite(ctx, invitee, invite.ID)

	require.NoError(t, err)
	assert.Equal(t, reconcile.MemberAppended, res.Change)
	assert.Equal(t, models.InviteStatusAccepted, res.Invite.Status)

	members, err := svc.GetMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	isMember, err := svc.IsMember(ctx, team.ID, invitee.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	// the invite is spent
	_, err = svc.AcceptInvite(ctx, invitee, invite.ID)
	assert.ErrorIs(t, err, services.ErrInviteNotPending)

	members, err = svc.GetMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestTeamService_Integration_AcceptInvite_WrongUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := newTeamService(tdb)

	owner := fixtures.CreateUser(t)
	stranger := fixtures.CreateUser(t)
	team := fixtures.CreateTeam(t, owner)
	invite := fixtures.CreateInvite(t, team, owner, "someone-else@example.com")

	_, err := svc.AcceptInvite(context.Background(), stranger, invite.ID)

	assert.ErrorIs(t, err, services.ErrInviteNotFound)
}

func TestTeamInvites_Integration_PendingEmailUniqueIgnoresCase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	team := fixtures.CreateTeam(t, owner)
	fixtures.CreateInvite(t, team, owner, "Dev@Example.com")

	_, err := tdb.DB.Pool.Exec(ctx, `
		INSERT INTO team_invites (team_id, invited_email, invited_by, team_role_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`, team.ID, "dev@example.com", owner.ID, models.TeamRoleMember, models.InviteStatusPending)

	assert.True(t, database.IsUniqueViolation(err))
}
