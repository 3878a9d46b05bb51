package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const siteColumns = `id, name, url, api_key, owner_type, owner_id, shared_with_teams,
	connection_status, wp_version, connection_checked_at, created_by, created_at, updated_at`

type SiteService struct {
	db       *database.DB
	activity *ActivityService
}

func NewSiteService(db *database.DB, activity *ActivityService) *SiteService {
	return &SiteService{db: db, activity: activity}
}

type SiteInput struct {
	Name            string
	URL             string
	Owner           models.Owner
	SharedWithTeams []uuid.UUID
}

type SiteUpdate struct {
	Name            *string
	URL             *string
	SharedWithTeams *[]uuid.UUID
}

// scanSite keeps an unknown owner_type as-is so the orphan scan reports it.
func scanSite(row pgx.Row) (*models.Site, error) {
	var site models.Site
	var ownerType string
	err := row.Scan(&site.ID, &site.Name, &site.URL, &site.APIKey, &ownerType, &site.Owner.ID, &site.SharedWithTeams,
		&site.ConnectionStatus, &site.WPVersion, &site.ConnectionCheckedAt, &site.CreatedBy, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	site.Owner.Type = models.OwnerType(ownerType)
	if site.SharedWithTeams == nil {
		site.SharedWithTeams = []uuid.UUID{}
	}
	return &site, nil
}

func scanSites(rows pgx.Rows) ([]models.Site, error) {
	defer rows.Close()
	sites := []models.Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func sharedOrEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// Create registers a site with a fresh connector api key. The connection stays
// inactive until the first successful test.
func (s *SiteService) Create(ctx context.Context, actor *models.User, in SiteInput) (*models.Site, error) {
	if err := in.Owner.Validate(); err != nil {
		return nil, err
	}
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	site, err := scanSite(tx.QueryRow(ctx, `
		INSERT INTO sites (name, url, api_key, owner_type, owner_id, shared_with_teams, connection_status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+siteColumns,
		in.Name, in.URL, apiKey, string(in.Owner.Type), in.Owner.ID, sharedOrEmpty(in.SharedWithTeams),
		models.ConnectionStatusInactive, actor.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actor.Email,
		Action:     "Added site " + site.Name,
		EntityType: models.EntitySite,
		EntityID:   &site.ID,
		Details:    site.URL,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return site, nil
}

func (s *SiteService) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	return scanSite(s.db.Pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id))
}

// ListAccessible returns the sites a user owns, their teams own, or that are
// shared with their teams.
func (s *SiteService) ListAccessible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]models.Site, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+siteColumns+`
		FROM sites
		WHERE (owner_type = 'user' AND owner_id = $1)
		   OR (owner_type = 'team' AND owner_id = ANY($2))
		   OR shared_with_teams && $2
		ORDER BY created_at DESC
	`, userID, sharedOrEmpty(teamIDs))
	if err != nil {
		return nil, err
	}
	return scanSites(rows)
}

func (s *SiteService) ListAll(ctx context.Context) ([]models.Site, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanSites(rows)
}

func (s *SiteService) Update(ctx context.Context, id uuid.UUID, upd SiteUpdate) (*models.Site, error) {
	var shared []uuid.UUID
	if upd.SharedWithTeams != nil {
		shared = sharedOrEmpty(*upd.SharedWithTeams)
	}
	return scanSite(s.db.Pool.QueryRow(ctx, `
		UPDATE sites SET
			name = COALESCE($1, name),
			url = COALESCE($2, url),
			shared_with_teams = COALESCE($3, shared_with_teams),
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+siteColumns,
		upd.Name, upd.URL, shared, id))
}

// Delete removes the site; its installation records go with it.
func (s *SiteService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.delete(ctx, tx, actorEmail, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SiteService) delete(ctx context.Context, q database.Querier, actorEmail string, id uuid.UUID) error {
	var name string
	if err := q.QueryRow(ctx, `DELETE FROM sites WHERE id = $1 RETURNING name`, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSiteNotFound
		}
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return s.activity.Log(ctx, q, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Deleted site " + name,
		EntityType: models.EntitySite,
		EntityID:   &id,
	})
}

// RecordConnectionCheck stores the outcome of a connector handshake.
func (s *SiteService) RecordConnectionCheck(ctx context.Context, id uuid.UUID, status string, wpVersion *string, checkedAt time.Time) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE sites SET
			connection_status = $1,
			wp_version = COALESCE($2, wp_version),
			connection_checked_at = $3,
			updated_at = NOW()
		WHERE id = $4
	`, status, wpVersion, checkedAt, id)
	if err != nil {
		return fmt.Errorf("failed to record connection check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}
