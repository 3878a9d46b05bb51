package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		FullName: fmt.Sprintf("Test User %d", f.counter),
		Email:    fmt.Sprintf("user%d@example.com", f.counter),
		Role:     models.RoleUser,
		Status:   models.UserStatusActive,
	}
	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (full_name, email, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.FullName, user.Email, user.Role, user.Status).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func AsAdmin() UserOption {
	return func(u *models.User) {
		u.Role = models.RoleAdmin
	}
}

// CreateTeam creates a team owned by owner, with the owner as an active member
func (f *Fixtures) CreateTeam(t *testing.T, owner *models.User) *models.Team {
	t.Helper()
	f.counter++

	team := &models.Team{
		Name:     fmt.Sprintf("Test Team %d", f.counter),
		OwnerID:  owner.ID,
		Settings: models.TeamSettings{DefaultTeamRoleID: models.TeamRoleMember},
	}
	settings, err := json.Marshal(team.Settings)
	if err != nil {
		t.Fatalf("failed to encode team settings: %v", err)
	}

	ctx := context.Background()
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO teams (name, owner_id, settings, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, team.Name, team.OwnerID, settings, owner.Email).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}

	f.AddTeamMember(t, team, owner, models.TeamRoleOwner)
	return team
}

// AddTeamMember adds user to team as an active member
func (f *Fixtures) AddTeamMember(t *testing.T, team *models.Team, user *models.User, role string) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO team_members (team_id, user_id, email, team_role_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`, team.ID, user.ID, user.Email, role, models.MemberStatusActive)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}
}

// CreateInvite creates a pending invite to team for email
func (f *Fixtures) CreateInvite(t *testing.T, team *models.Team, inviter *models.User, email string) *models.TeamInvite {
	t.Helper()
	invite := &models.TeamInvite{
		TeamID:       team.ID,
		InvitedEmail: email,
		InvitedBy:    inviter.ID,
		TeamRoleID:   models.TeamRoleMember,
		Status:       models.InviteStatusPending,
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO team_invites (team_id, invited_email, invited_by, team_role_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, invite.TeamID, invite.InvitedEmail, invite.InvitedBy, invite.TeamRoleID, invite.Status).
		Scan(&invite.ID, &invite.CreatedAt, &invite.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}
	return invite
}

// CreateSite creates a site owned by owner. The owner row is not checked, so
// orphaned sites can be built by passing an unknown id.
func (f *Fixtures) CreateSite(t *testing.T, owner models.Owner) *models.Site {
	t.Helper()
	f.counter++

	site := &models.Site{
		Name:             fmt.Sprintf("Site %d", f.counter),
		URL:              fmt.Sprintf("https://site%d.example.com", f.counter),
		APIKey:           uuid.NewString(),
		Owner:            owner,
		SharedWithTeams:  []uuid.UUID{},
		ConnectionStatus: "inactive",
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO sites (name, url, api_key, owner_type, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, site.Name, site.URL, site.APIKey, string(owner.Type), owner.ID).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create site: %v", err)
	}
	return site
}

// CreatePlugin creates a plugin owned by owner with the given versions.
// The last version becomes the latest.
func (f *Fixtures) CreatePlugin(t *testing.T, owner models.Owner, versions ...models.PluginVersion) *models.Plugin {
	t.Helper()
	f.counter++

	plugin := &models.Plugin{
		Name:            fmt.Sprintf("Plugin %d", f.counter),
		Slug:            fmt.Sprintf("plugin-%d", f.counter),
		Owner:           owner,
		Source:          "upload",
		Versions:        versions,
		SharedWithTeams: []uuid.UUID{},
	}
	if plugin.Versions == nil {
		plugin.Versions = []models.PluginVersion{}
	}
	if n := len(versions); n > 0 {
		latest := versions[n-1].Version
		plugin.LatestVersion = &latest
	}
	raw, err := json.Marshal(plugin.Versions)
	if err != nil {
		t.Fatalf("failed to encode versions: %v", err)
	}

	err = f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO plugins (name, slug, owner_type, owner_id, source, versions, latest_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, plugin.Name, plugin.Slug, string(owner.Type), owner.ID, plugin.Source, raw, plugin.LatestVersion).
		Scan(&plugin.ID, &plugin.CreatedAt, &plugin.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create plugin: %v", err)
	}
	return plugin
}

// DeleteUser removes a user row directly, leaving whatever it owned behind.
func (f *Fixtures) DeleteUser(t *testing.T, user *models.User) {
	t.Helper()
	if _, err := f.db.Pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, user.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}
}
