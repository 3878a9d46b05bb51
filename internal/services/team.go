package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/metrics"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const teamColumns = `id, name, description, owner_id, is_blocked, settings, created_by, created_at, updated_at`

const memberColumns = `id, team_id, user_id, email, team_role_id, status, joined_at`

type TeamService struct {
	db       *database.DB
	activity *ActivityService
	metrics  *metrics.ReconcileMetrics
	now      func() time.Time
}

func NewTeamService(db *database.DB, activity *ActivityService, m *metrics.ReconcileMetrics) *TeamService {
	return &TeamService{db: db, activity: activity, metrics: m, now: time.Now}
}

// TeamUpdate carries editable team fields; nil leaves a field unchanged.
type TeamUpdate struct {
	Name        *string
	Description *string
	Settings    *models.TeamSettings
}

func defaultTeamSettings() models.TeamSettings {
	return models.TeamSettings{AllowMemberInvites: false, DefaultTeamRoleID: models.TeamRoleMember}
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	var settings []byte
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.IsBlocked, &settings, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if t.Settings, err = decodeTeamSettings(settings); err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeTeamSettings(raw []byte) (models.TeamSettings, error) {
	settings := defaultTeamSettings()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return settings, fmt.Errorf("failed to decode team settings: %w", err)
		}
	}
	return settings, nil
}

func scanTeams(rows pgx.Rows) ([]models.Team, error) {
	defer rows.Close()
	teams := []models.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func scanMembers(rows pgx.Rows) ([]models.TeamMember, error) {
	defer rows.Close()
	members := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Email, &m.TeamRoleID, &m.Status, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create makes owner the team's owner and first active member.
func (s *TeamService) Create(ctx context.Context, owner *models.User, name, description string) (*models.Team, error) {
	settings, err := json.Marshal(defaultTeamSettings())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	team, err := scanTeam(tx.QueryRow(ctx, `
		INSERT INTO teams (name, description, owner_id, settings, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+teamColumns,
		name, description, owner.ID, settings, owner.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, email, team_role_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`, team.ID, owner.ID, owner.Email, models.TeamRoleOwner, models.MemberStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  owner.Email,
		Action:     "Created team " + team.Name,
		EntityType: models.EntityTeam,
		EntityID:   &team.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return team, nil
}

func (s *TeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	return scanTeam(s.db.Pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, teamID))
}

// GetUserTeams returns the teams userID owns or is an active member of.
func (s *TeamService) GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+teamColumns+`
		FROM teams t
		WHERE t.owner_id = $1
		   OR EXISTS (SELECT 1 FROM team_members tm WHERE tm.team_id = t.id AND tm.user_id = $1 AND tm.status = 'active')
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return scanTeams(rows)
}

func (s *TeamService) TeamIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return queryIDs(ctx, s.db.Pool, `
		SELECT t.id FROM teams t
		WHERE t.owner_id = $1
		   OR EXISTS (SELECT 1 FROM team_members tm WHERE tm.team_id = t.id AND tm.user_id = $1 AND tm.status = 'active')
	`, userID)
}

func (s *TeamService) ListAll(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanTeams(rows)
}

func (s *TeamService) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return queryIDs(ctx, s.db.Pool, `SELECT id FROM teams`)
}

func (s *TeamService) Update(ctx context.Context, teamID uuid.UUID, upd TeamUpdate) (*models.Team, error) {
	var settings []byte
	if upd.Settings != nil {
		var err error
		if settings, err = json.Marshal(upd.Settings); err != nil {
			return nil, err
		}
	}
	return scanTeam(s.db.Pool.QueryRow(ctx, `
		UPDATE teams SET
			name = COALESCE($1, name),
			description = COALESCE($2, description),
			settings = COALESCE($3, settings),
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+teamColumns,
		upd.Name, upd.Description, settings, teamID))
}

func (s *TeamService) Delete(ctx context.Context, actorEmail string, teamID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	if err := tx.QueryRow(ctx, `DELETE FROM teams WHERE id = $1 RETURNING name`, teamID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Deleted team " + name,
		EntityType: models.EntityTeam,
		EntityID:   &teamID,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *TeamService) SetBlocked(ctx context.Context, actorEmail string, teamID uuid.UUID, blocked bool) (*models.Team, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	team, err := scanTeam(tx.QueryRow(ctx, `
		UPDATE teams SET is_blocked = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+teamColumns,
		blocked, teamID))
	if err != nil {
		return nil, err
	}

	action := "Unblocked team "
	if blocked {
		action = "Blocked team "
	}
	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     action + team.Name,
		EntityType: models.EntityTeam,
		EntityID:   &team.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return team, nil
}

func (s *TeamService) IsOwner(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var ownerID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_id FROM teams WHERE id = $1`, teamID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTeamNotFound
		}
		return false, err
	}
	return ownerID == userID, nil
}

// IsMember reports effective membership: ownership or an active member entry.
func (s *TeamService) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1 AND owner_id = $2)
		    OR EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2 AND status = 'active')
	`, teamID, userID).Scan(&exists)
	return exists, err
}

func (s *TeamService) GetMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	return s.getMembers(ctx, s.db.Pool, teamID)
}

func (s *TeamService) getMembers(ctx context.Context, q database.Querier, teamID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := q.Query(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at, id
	`, teamID)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

// MembersByTeam loads every member entry grouped by team.
func (s *TeamService) MembersByTeam(ctx context.Context) (map[uuid.UUID][]models.TeamMember, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+memberColumns+` FROM team_members ORDER BY team_id, joined_at, id`)
	if err != nil {
		return nil, err
	}
	members, err := scanMembers(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]models.TeamMember)
	for _, m := range members {
		out[m.TeamID] = append(out[m.TeamID], m)
	}
	return out, nil
}

// RemoveMember deletes a member entry. The owner's entry cannot be removed.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM team_members tm
		USING teams t
		WHERE tm.team_id = t.id AND tm.team_id = $1 AND tm.user_id = $2 AND t.owner_id != $2
	`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID uuid.UUID) error {
	isOwner, err := s.IsOwner(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if isOwner {
		return ErrOwnerCannotLeave
	}
	return s.RemoveMember(ctx, teamID, userID)
}
