package reconcile

import (
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileMembers_FlipsPendingEntryInPlace(t *testing.T) {
	teamID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()
	joined := time.Now().Add(-time.Hour)
	members := []models.TeamMember{
		{UserID: u1, TeamID: teamID, Status: models.MemberStatusActive, TeamRoleID: models.TeamRoleOwner},
		{UserID: u2, TeamID: teamID, Status: models.MemberStatusPending, TeamRoleID: "Editor", JoinedAt: joined},
	}
	invite := models.TeamInvite{TeamID: teamID, TeamRoleID: models.TeamRoleMember}

	out, idx, change := ReconcileMembers(members, invite, models.User{ID: u2, Email: "u2@example.com"}, time.Now())

	require.Len(t, out, 2)
	assert.Equal(t, 1, idx)
	assert.Equal(t, MemberActivated, change)
	assert.Equal(t, models.MemberStatusActive, out[0].Status)
	assert.Equal(t, models.MemberStatusActive, out[1].Status)
	assert.Equal(t, "Editor", out[1].TeamRoleID)
	assert.Equal(t, joined, out[1].JoinedAt)
	// input untouched
	assert.Equal(t, models.MemberStatusPending, members[1].Status)
}

func TestReconcileMembers_AppendsAbsentUser(t *testing.T) {
	teamID := uuid.New()
	u1 := uuid.New()
	acceptor := models.User{ID: uuid.New(), Email: "new@example.com"}
	members := []models.TeamMember{{UserID: u1, Status: models.MemberStatusActive}}
	invite := models.TeamInvite{TeamID: teamID, TeamRoleID: "Editor"}
	now := time.Now()

	out, idx, change := ReconcileMembers(members, invite, acceptor, now)

	require.Len(t, out, 2)
	assert.Equal(t, 1, idx)
	assert.Equal(t, MemberAppended, change)
	assert.Equal(t, models.TeamMember{
		TeamID:     teamID,
		UserID:     acceptor.ID,
		Email:      acceptor.Email,
		TeamRoleID: "Editor",
		Status:     models.MemberStatusActive,
		JoinedAt:   now,
	}, out[1])
}

func TestReconcileMembers_DefaultsRole(t *testing.T) {
	out, _, _ := ReconcileMembers(nil, models.TeamInvite{}, models.User{ID: uuid.New()}, time.Now())

	require.Len(t, out, 1)
	assert.Equal(t, models.TeamRoleMember, out[0].TeamRoleID)
}

func TestReconcileMembers_AlreadyActiveIsUnchanged(t *testing.T) {
	u := uuid.New()
	members := []models.TeamMember{{UserID: u, Status: models.MemberStatusActive}}

	out, idx, change := ReconcileMembers(members, models.TeamInvite{}, models.User{ID: u}, time.Now())

	assert.Len(t, out, 1)
	assert.Equal(t, 0, idx)
	assert.Equal(t, MemberUnchanged, change)
}

func TestReconcileMembers_NeverDuplicates(t *testing.T) {
	u := uuid.New()
	members := []models.TeamMember{{UserID: u, Status: models.MemberStatusPending}}
	invite := models.TeamInvite{TeamRoleID: models.TeamRoleMember}

	once, _, _ := ReconcileMembers(members, invite, models.User{ID: u}, time.Now())
	twice, _, change := ReconcileMembers(once, invite, models.User{ID: u}, time.Now())

	assert.Len(t, twice, 1)
	assert.Equal(t, MemberUnchanged, change)
}

func TestIsEffectiveMember(t *testing.T) {
	owner, active, pending, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	team := models.Team{ID: uuid.New(), OwnerID: owner}
	members := []models.TeamMember{
		{UserID: active, Status: models.MemberStatusActive},
		{UserID: pending, Status: models.MemberStatusPending},
	}

	assert.True(t, IsEffectiveMember(team, members, owner))
	assert.True(t, IsEffectiveMember(team, members, active))
	assert.False(t, IsEffectiveMember(team, members, pending))
	assert.False(t, IsEffectiveMember(team, members, stranger))
}

func TestUserTeamIDs(t *testing.T) {
	user := uuid.New()
	owned := models.Team{ID: uuid.New(), OwnerID: user}
	joined := models.Team{ID: uuid.New(), OwnerID: uuid.New()}
	invited := models.Team{ID: uuid.New(), OwnerID: uuid.New()}
	members := map[uuid.UUID][]models.TeamMember{
		joined.ID:  {{UserID: user, Status: models.MemberStatusActive}},
		invited.ID: {{UserID: user, Status: models.MemberStatusPending}},
	}

	ids := UserTeamIDs([]models.Team{owned, joined, invited}, members, user)

	assert.Equal(t, []uuid.UUID{owned.ID, joined.ID}, ids)
}

func TestTeammates_ExcludesSenderAndPending(t *testing.T) {
	owner, a, b, pending := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	team := models.Team{ID: uuid.New(), OwnerID: owner}
	members := []models.TeamMember{
		{UserID: owner, Status: models.MemberStatusActive},
		{UserID: a, Status: models.MemberStatusActive},
		{UserID: b, Status: models.MemberStatusActive},
		{UserID: pending, Status: models.MemberStatusPending},
	}

	assert.Equal(t, []uuid.UUID{owner, b}, Teammates(team, members, a))
	assert.Equal(t, []uuid.UUID{a, b}, Teammates(team, members, owner))
}
