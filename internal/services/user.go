package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, full_name, email, role, status, company, phone,
	two_fa_enabled, two_fa_verified_session, created_by, created_at, updated_at`

type UserService struct {
	db       *database.DB
	activity *ActivityService
}

func NewUserService(db *database.DB, activity *ActivityService) *UserService {
	return &UserService{db: db, activity: activity}
}

// ProfileUpdate carries the self-service fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	FullName     *string
	Company      *string
	Phone        *string
	TwoFAEnabled *bool
}

// AdminUpdate carries the fields only admins may change.
type AdminUpdate struct {
	Role   *string
	Status *string
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Role, &u.Status, &u.Company, &u.Phone,
		&u.TwoFAEnabled, &u.TwoFAVerifiedSession, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// EnsureFromClaims returns the user behind an authenticated token, creating the
// record on first sight.
func (s *UserService) EnsureFromClaims(ctx context.Context, id uuid.UUID, email, name string) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, created_by)
		VALUES ($1, $2, $3, $2)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = CASE WHEN users.full_name = '' THEN EXCLUDED.full_name ELSE users.full_name END
		RETURNING `+userColumns,
		id, email, name))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *UserService) List(ctx context.Context, search string) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
	`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET
			full_name = COALESCE($1, full_name),
			company = COALESCE($2, company),
			phone = COALESCE($3, phone),
			two_fa_enabled = COALESCE($4, two_fa_enabled),
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+userColumns,
		upd.FullName, upd.Company, upd.Phone, upd.TwoFAEnabled, id))
}

func (s *UserService) UpdateAdmin(ctx context.Context, actorEmail string, id uuid.UUID, upd AdminUpdate) (*models.User, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET
			role = COALESCE($1, role),
			status = COALESCE($2, status),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		upd.Role, upd.Status, id))
	if err != nil {
		return nil, err
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Updated user " + user.Email,
		EntityType: models.EntityUser,
		EntityID:   &user.ID,
		Details:    fmt.Sprintf("role=%s status=%s", user.Role, user.Status),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// Delete removes the user record only. Owned sites, plugins and memberships
// are left behind for the orphan cleanup to find.
func (s *UserService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var email string
	if err := tx.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING email`, id).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Deleted user " + email,
		EntityType: models.EntityUser,
		EntityID:   &id,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ResetTwoFASession forces the next sign-in to verify the second factor again.
func (s *UserService) ResetTwoFASession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET two_fa_verified_session = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reset 2fa session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) SetRoleByEmail(ctx context.Context, email, role string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE LOWER(email) = LOWER($2)
		RETURNING `+userColumns,
		role, email))
}

func (s *UserService) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return queryIDs(ctx, s.db.Pool, `SELECT id FROM users`)
}

func queryIDs(ctx context.Context, q database.Querier, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
