package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pluginColumns = `id, name, slug, description, author, author_url, owner_type, owner_id, source,
	versions, latest_version, shared_with_teams, created_by, created_at, updated_at`

const installationColumns = `id, plugin_id, site_id, version, is_active, installed_at`

type PluginService struct {
	db       *database.DB
	activity *ActivityService
	now      func() time.Time
}

func NewPluginService(db *database.DB, activity *ActivityService) *PluginService {
	return &PluginService{db: db, activity: activity, now: time.Now}
}

type PluginInput struct {
	Name            string
	Slug            string
	Description     string
	Author          string
	AuthorURL       string
	Owner           models.Owner
	Source          string
	Version         string
	DownloadURL     string
	SharedWithTeams []uuid.UUID
}

func scanPlugin(row pgx.Row) (*models.Plugin, error) {
	var p models.Plugin
	var ownerType string
	var versions []byte
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Author, &p.AuthorURL, &ownerType, &p.Owner.ID, &p.Source,
		&versions, &p.LatestVersion, &p.SharedWithTeams, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPluginNotFound
		}
		return nil, err
	}
	p.Owner.Type = models.OwnerType(ownerType)
	p.Versions = []models.PluginVersion{}
	if len(versions) > 0 {
		if err := json.Unmarshal(versions, &p.Versions); err != nil {
			return nil, fmt.Errorf("failed to decode plugin versions: %w", err)
		}
	}
	if p.SharedWithTeams == nil {
		p.SharedWithTeams = []uuid.UUID{}
	}
	p.InstalledOn = []models.PluginInstallation{}
	return &p, nil
}

func scanPlugins(rows pgx.Rows) ([]models.Plugin, error) {
	defer rows.Close()
	plugins := []models.Plugin{}
	for rows.Next() {
		p, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, *p)
	}
	return plugins, rows.Err()
}

func scanInstallations(rows pgx.Rows) ([]models.PluginInstallation, error) {
	defer rows.Close()
	out := []models.PluginInstallation{}
	for rows.Next() {
		var i models.PluginInstallation
		if err := rows.Scan(&i.ID, &i.PluginID, &i.SiteID, &i.Version, &i.IsActive, &i.InstalledAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Create adds a plugin to its owner's library. Slugs are unique per owner; the
// unique index settles concurrent uploads of the same slug.
func (s *PluginService) Create(ctx context.Context, actor *models.User, in PluginInput) (*models.Plugin, error) {
	if err := in.Owner.Validate(); err != nil {
		return nil, err
	}
	if in.Source == "" {
		in.Source = models.PluginSourceUpload
	}

	versions := []models.PluginVersion{}
	if in.Version != "" {
		versions = append(versions, models.PluginVersion{Version: in.Version, DownloadURL: in.DownloadURL, CreatedAt: s.now()})
	}
	rawVersions, err := json.Marshal(versions)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM plugins WHERE owner_type = $1 AND owner_id = $2 AND slug = $3)
	`, string(in.Owner.Type), in.Owner.ID, in.Slug).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSlug
	}

	plugin, err := scanPlugin(tx.QueryRow(ctx, `
		INSERT INTO plugins (name, slug, description, author, author_url, owner_type, owner_id, source,
			versions, latest_version, shared_with_teams, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+pluginColumns,
		in.Name, in.Slug, in.Description, in.Author, in.AuthorURL, string(in.Owner.Type), in.Owner.ID, in.Source,
		rawVersions, reconcile.LatestVersion(versions), sharedOrEmpty(in.SharedWithTeams), actor.Email))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create plugin: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actor.Email,
		Action:     "Added plugin " + plugin.Name,
		EntityType: models.EntityPlugin,
		EntityID:   &plugin.ID,
		Details:    plugin.Source,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return plugin, nil
}

func (s *PluginService) GetByID(ctx context.Context, id uuid.UUID) (*models.Plugin, error) {
	plugin, err := scanPlugin(s.db.Pool.QueryRow(ctx, `SELECT `+pluginColumns+` FROM plugins WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if plugin.InstalledOn, err = s.Installations(ctx, id); err != nil {
		return nil, err
	}
	return plugin, nil
}

func (s *PluginService) ListAccessible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]models.Plugin, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+pluginColumns+`
		FROM plugins
		WHERE (owner_type = 'user' AND owner_id = $1)
		   OR (owner_type = 'team' AND owner_id = ANY($2))
		   OR shared_with_teams && $2
		ORDER BY name
	`, userID, sharedOrEmpty(teamIDs))
	if err != nil {
		return nil, err
	}
	return scanPlugins(rows)
}

func (s *PluginService) ListAll(ctx context.Context) ([]models.Plugin, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+pluginColumns+` FROM plugins ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanPlugins(rows)
}

func (s *PluginService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
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

func (s *PluginService) delete(ctx context.Context, q database.Querier, actorEmail string, id uuid.UUID) error {
	var name string
	if err := q.QueryRow(ctx, `DELETE FROM plugins WHERE id = $1 RETURNING name`, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPluginNotFound
		}
		return fmt.Errorf("failed to delete plugin: %w", err)
	}
	return s.activity.Log(ctx, q, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Deleted plugin " + name,
		EntityType: models.EntityPlugin,
		EntityID:   &id,
	})
}

// AddVersion appends a version and makes it the latest.
func (s *PluginService) AddVersion(ctx context.Context, actorEmail string, id uuid.UUID, version, downloadURL string) (*models.Plugin, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	plugin, err := scanPlugin(tx.QueryRow(ctx, `SELECT `+pluginColumns+` FROM plugins WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	for _, v := range plugin.Versions {
		if v.Version == version {
			return nil, ErrVersionExists
		}
	}

	versions := append(plugin.Versions, models.PluginVersion{Version: version, DownloadURL: downloadURL, CreatedAt: s.now()})
	if err := saveVersions(ctx, tx, id, versions); err != nil {
		return nil, err
	}
	plugin.Versions = versions
	plugin.LatestVersion = reconcile.LatestVersion(versions)

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     fmt.Sprintf("Added version %s of %s", version, plugin.Name),
		EntityType: models.EntityPlugin,
		EntityID:   &plugin.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return plugin, nil
}

// saveVersions writes versions and keeps latest_version equal to the last entry.
func saveVersions(ctx context.Context, q database.Querier, id uuid.UUID, versions []models.PluginVersion) error {
	raw, err := json.Marshal(versions)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		UPDATE plugins SET versions = $1, latest_version = $2, updated_at = NOW() WHERE id = $3
	`, raw, reconcile.LatestVersion(versions), id)
	if err != nil {
		return fmt.Errorf("failed to save plugin versions: %w", err)
	}
	return nil
}

func (s *PluginService) RecordInstall(ctx context.Context, pluginID, siteID uuid.UUID, version string, active bool) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO plugin_installations (plugin_id, site_id, version, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plugin_id, site_id) DO UPDATE SET
			version = EXCLUDED.version,
			is_active = EXCLUDED.is_active,
			installed_at = NOW()
	`, pluginID, siteID, version, active)
	if err != nil {
		return fmt.Errorf("failed to record installation: %w", err)
	}
	return nil
}

func (s *PluginService) RemoveInstall(ctx context.Context, pluginID, siteID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM plugin_installations WHERE plugin_id = $1 AND site_id = $2`, pluginID, siteID)
	return err
}

func (s *PluginService) Installations(ctx context.Context, pluginID uuid.UUID) ([]models.PluginInstallation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+installationColumns+` FROM plugin_installations WHERE plugin_id = $1 ORDER BY installed_at
	`, pluginID)
	if err != nil {
		return nil, err
	}
	return scanInstallations(rows)
}

func (s *PluginService) InstallationsBySite(ctx context.Context, siteID uuid.UUID) ([]models.PluginInstallation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+installationColumns+` FROM plugin_installations WHERE site_id = $1 ORDER BY installed_at
	`, siteID)
	if err != nil {
		return nil, err
	}
	return scanInstallations(rows)
}
