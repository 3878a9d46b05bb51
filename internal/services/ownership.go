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

// OwnershipService moves sites and plugins between users and teams.
type OwnershipService struct {
	db       *database.DB
	activity *ActivityService
}

func NewOwnershipService(db *database.DB, activity *ActivityService) *OwnershipService {
	return &OwnershipService{db: db, activity: activity}
}

func ownerExists(ctx context.Context, q database.Querier, o models.Owner) (bool, error) {
	var query string
	switch o.Type {
	case models.OwnerTypeUser:
		query = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	case models.OwnerTypeTeam:
		query = `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`
	default:
		return false, models.ErrInvalidOwnerType
	}
	var exists bool
	if err := q.QueryRow(ctx, query, o.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check owner: %w", err)
	}
	return exists, nil
}

// ownedTable describes a table whose rows carry owner_type/owner_id.
type ownedTable struct {
	name       string
	entityType string
	label      string
	notFound   error
}

var (
	sitesTable   = ownedTable{name: "sites", entityType: models.EntitySite, label: "site", notFound: ErrSiteNotFound}
	pluginsTable = ownedTable{name: "plugins", entityType: models.EntityPlugin, label: "plugin", notFound: ErrPluginNotFound}
)

func (s *OwnershipService) TransferSite(ctx context.Context, actorEmail string, siteID uuid.UUID, target models.Owner) (*models.Site, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.transfer(ctx, tx, actorEmail, sitesTable, siteID, target); err != nil {
		return nil, err
	}
	site, err := scanSite(tx.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, siteID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return site, nil
}

// TransferPlugin fails with ErrDuplicateSlug when the target already has a
// plugin with the same slug.
func (s *OwnershipService) TransferPlugin(ctx context.Context, actorEmail string, pluginID uuid.UUID, target models.Owner) (*models.Plugin, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.transfer(ctx, tx, actorEmail, pluginsTable, pluginID, target); err != nil {
		return nil, err
	}
	plugin, err := scanPlugin(tx.QueryRow(ctx, `SELECT `+pluginColumns+` FROM plugins WHERE id = $1`, pluginID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return plugin, nil
}

// transfer overwrites the owner of one row and logs the previous and new owner.
// The target must exist.
func (s *OwnershipService) transfer(ctx context.Context, q database.Querier, actorEmail string, t ownedTable, id uuid.UUID, target models.Owner) error {
	if err := target.Validate(); err != nil {
		return err
	}
	exists, err := ownerExists(ctx, q, target)
	if err != nil {
		return err
	}
	if !exists {
		return ErrOwnerNotFound
	}

	var name, prevType string
	var prevID uuid.UUID
	err = q.QueryRow(ctx, `SELECT name, owner_type, owner_id FROM `+t.name+` WHERE id = $1 FOR UPDATE`, id).
		Scan(&name, &prevType, &prevID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t.notFound
		}
		return err
	}
	prev := models.Owner{Type: models.OwnerType(prevType), ID: prevID}

	_, err = q.Exec(ctx, `
		UPDATE `+t.name+` SET owner_type = $1, owner_id = $2, updated_at = NOW() WHERE id = $3
	`, string(target.Type), target.ID, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to transfer %s: %w", t.label, err)
	}

	return s.activity.Log(ctx, q, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     fmt.Sprintf("Transferred %s %s", t.label, name),
		EntityType: t.entityType,
		EntityID:   &id,
		Details:    fmt.Sprintf("from %s to %s", prev.Ref(), target.Ref()),
	})
}
