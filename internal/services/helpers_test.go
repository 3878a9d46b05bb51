package services

import (
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var (
	teamCols   = []string{"id", "name", "description", "owner_id", "is_blocked", "settings", "created_by", "created_at", "updated_at"}
	memberCols = []string{"id", "team_id", "user_id", "email", "team_role_id", "status", "joined_at"}
	inviteCols = []string{"id", "team_id", "invited_email", "invited_by", "team_role_id", "status", "accepted_at", "created_at", "updated_at"}
	userCols   = []string{"id", "full_name", "email", "role", "status", "company", "phone",
		"two_fa_enabled", "two_fa_verified_session", "created_by", "created_at", "updated_at"}
	siteCols = []string{"id", "name", "url", "api_key", "owner_type", "owner_id", "shared_with_teams",
		"connection_status", "wp_version", "connection_checked_at", "created_by", "created_at", "updated_at"}
	pluginCols = []string{"id", "name", "slug", "description", "author", "author_url", "owner_type", "owner_id", "source",
		"versions", "latest_version", "shared_with_teams", "created_by", "created_at", "updated_at"}
)

func newMockDB(t *testing.T) (*database.DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &database.DB{Pool: mock}, mock
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func teamRow(rows *pgxmock.Rows, team models.Team) *pgxmock.Rows {
	return rows.AddRow(team.ID, team.Name, team.Description, team.OwnerID, team.IsBlocked,
		[]byte(`{"allow_member_invites":false,"default_team_role_id":"Member"}`), team.CreatedBy, team.CreatedAt, team.UpdatedAt)
}

func siteRow(rows *pgxmock.Rows, s models.Site) *pgxmock.Rows {
	return rows.AddRow(s.ID, s.Name, s.URL, s.APIKey, string(s.Owner.Type), s.Owner.ID, []uuid.UUID{},
		s.ConnectionStatus, nil, nil, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
}

func pluginRow(rows *pgxmock.Rows, p models.Plugin, versions string) *pgxmock.Rows {
	return rows.AddRow(p.ID, p.Name, p.Slug, p.Description, p.Author, p.AuthorURL, string(p.Owner.Type), p.Owner.ID, p.Source,
		[]byte(versions), p.LatestVersion, []uuid.UUID{}, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
}

func expectActivity(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}
