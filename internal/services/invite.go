package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const inviteColumns = `id, team_id, invited_email, invited_by, team_role_id, status, accepted_at, created_at, updated_at`

// AcceptResult describes the membership an accepted invite produced.
type AcceptResult struct {
	Invite *models.TeamInvite
	Team   *models.Team
	Member models.TeamMember
	Change reconcile.MemberChange
}

func scanInvite(row pgx.Row) (*models.TeamInvite, error) {
	var inv models.TeamInvite
	err := row.Scan(&inv.ID, &inv.TeamID, &inv.InvitedEmail, &inv.InvitedBy, &inv.TeamRoleID,
		&inv.Status, &inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Invite records a pending invite for email. When the invitee already has an
// account they also get a pending member placeholder and a notification.
func (s *TeamService) Invite(ctx context.Context, inviter *models.User, teamID uuid.UUID, email, role string) (*models.TeamInvite, error) {
	email = strings.TrimSpace(email)

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	team, err := scanTeam(tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR SHARE`, teamID))
	if err != nil {
		return nil, err
	}
	if team.IsBlocked {
		return nil, ErrTeamBlocked
	}
	if role == "" {
		role = team.Settings.DefaultTeamRoleID
	}

	var member bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND LOWER(email) = LOWER($2) AND status = 'active')
	`, teamID, email).Scan(&member)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	invite, err := scanInvite(tx.QueryRow(ctx, `
		INSERT INTO team_invites (team_id, invited_email, invited_by, team_role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+inviteColumns,
		teamID, email, inviter.ID, role))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrInviteExists
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	var inviteeID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE LOWER(email) = LOWER($1)`, email).Scan(&inviteeID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		_, err = tx.Exec(ctx, `
			INSERT INTO team_members (team_id, user_id, email, team_role_id, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (team_id, user_id) DO NOTHING
		`, teamID, inviteeID, email, role, models.MemberStatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to add pending member: %w", err)
		}

		if _, err := createNotification(ctx, tx, models.Notification{
			RecipientID:  inviteeID,
			Title:        "Team invitation",
			Message:      fmt.Sprintf("%s invited you to join %s", inviter.Email, team.Name),
			Type:         models.NotificationTypeTeamInvite,
			TeamInviteID: &invite.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  inviter.Email,
		Action:     fmt.Sprintf("Invited %s to team %s", email, team.Name),
		EntityType: models.EntityTeam,
		EntityID:   &team.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	invite.Team = team
	return invite, nil
}

func (s *TeamService) GetInviteByID(ctx context.Context, inviteID uuid.UUID) (*models.TeamInvite, error) {
	return scanInvite(s.db.Pool.QueryRow(ctx, `SELECT `+inviteColumns+` FROM team_invites WHERE id = $1`, inviteID))
}

// GetMyInvites lists pending invites addressed to email, with their team.
func (s *TeamService) GetMyInvites(ctx context.Context, email string) ([]models.TeamInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.team_id, i.invited_email, i.invited_by, i.team_role_id, i.status, i.accepted_at, i.created_at, i.updated_at,
		       t.id, t.name, t.description, t.owner_id, t.is_blocked, t.settings, t.created_by, t.created_at, t.updated_at
		FROM team_invites i
		JOIN teams t ON t.id = i.team_id
		WHERE LOWER(i.invited_email) = LOWER($1) AND i.status = 'pending'
		ORDER BY i.created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []models.TeamInvite{}
	for rows.Next() {
		var inv models.TeamInvite
		var team models.Team
		var settings []byte
		if err := rows.Scan(
			&inv.ID, &inv.TeamID, &inv.InvitedEmail, &inv.InvitedBy, &inv.TeamRoleID, &inv.Status, &inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
			&team.ID, &team.Name, &team.Description, &team.OwnerID, &team.IsBlocked, &settings, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt,
		); err != nil {
			return nil, err
		}
		var err error
		if team.Settings, err = decodeTeamSettings(settings); err != nil {
			return nil, err
		}
		inv.Team = &team
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (s *TeamService) GetTeamPendingInvites(ctx context.Context, teamID uuid.UUID) ([]models.TeamInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+inviteColumns+`
		FROM team_invites
		WHERE team_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []models.TeamInvite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// CancelInvite withdraws a pending invite together with its placeholder member
// and notifications.
func (s *TeamService) CancelInvite(ctx context.Context, inviteID, teamID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var email string
	err = tx.QueryRow(ctx, `
		DELETE FROM team_invites WHERE id = $1 AND team_id = $2 AND status = 'pending'
		RETURNING invited_email
	`, inviteID, teamID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("failed to cancel invite: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM team_members WHERE team_id = $1 AND LOWER(email) = LOWER($2) AND status = 'pending'
	`, teamID, email); err != nil {
		return fmt.Errorf("failed to remove pending member: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE team_invite_id = $1`, inviteID); err != nil {
		return fmt.Errorf("failed to remove invite notifications: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AcceptInvite runs the whole acceptance in one transaction: the invite turns
// accepted, the acceptor's member entry is activated or appended, the invite's
// notifications are marked read and the change is logged. Invite and team rows
// are locked so two concurrent accepts serialise.
func (s *TeamService) AcceptInvite(ctx context.Context, acceptor *models.User, inviteID uuid.UUID) (*AcceptResult, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	invite, err := scanInvite(tx.QueryRow(ctx, `SELECT `+inviteColumns+` FROM team_invites WHERE id = $1 FOR UPDATE`, inviteID))
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(invite.InvitedEmail, acceptor.Email) {
		return nil, ErrInviteNotFound
	}
	if invite.Status != models.InviteStatusPending {
		return nil, ErrInviteNotPending
	}

	now := s.now()
	if _, err := tx.Exec(ctx, `
		UPDATE team_invites SET status = $1, accepted_at = $2, updated_at = NOW() WHERE id = $3
	`, models.InviteStatusAccepted, now, invite.ID); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}
	invite.Status = models.InviteStatusAccepted
	invite.AcceptedAt = &now

	team, err := scanTeam(tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, invite.TeamID))
	if err != nil {
		return nil, err
	}

	members, err := s.getMembers(ctx, tx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	updated, idx, change := reconcile.ReconcileMembers(members, *invite, *acceptor, now)
	member := updated[idx]

	switch change {
	case reconcile.MemberActivated:
		if _, err := tx.Exec(ctx, `UPDATE team_members SET status = $1 WHERE id = $2`, models.MemberStatusActive, member.ID); err != nil {
			return nil, fmt.Errorf("failed to activate member: %w", err)
		}
	case reconcile.MemberAppended:
		err := tx.QueryRow(ctx, `
			INSERT INTO team_members (team_id, user_id, email, team_role_id, status, joined_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, member.TeamID, member.UserID, member.Email, member.TeamRoleID, member.Status, member.JoinedAt).Scan(&member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND team_invite_id = $2
	`, acceptor.ID, invite.ID); err != nil {
		return nil, fmt.Errorf("failed to mark invite notifications read: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  acceptor.Email,
		Action:     "Accepted invitation to team " + team.Name,
		EntityType: models.EntityTeam,
		EntityID:   &team.ID,
		Details:    "membership " + change.String(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.IncInvite(models.InviteStatusAccepted)
	return &AcceptResult{Invite: invite, Team: team, Member: member, Change: change}, nil
}

// DeclineInvite moves a pending invite to declined and touches nothing else.
func (s *TeamService) DeclineInvite(ctx context.Context, user *models.User, inviteID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE team_invites SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'pending' AND LOWER(invited_email) = LOWER($3)
	`, models.InviteStatusDeclined, inviteID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to decline invite: %w", err)
	}
	if tag.RowsAffected() == 1 {
		s.metrics.IncInvite(models.InviteStatusDeclined)
		return nil
	}

	invite, err := s.GetInviteByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(invite.InvitedEmail, user.Email) {
		return ErrInviteNotFound
	}
	return ErrInviteNotPending
}
