package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/lock"
	"github.com/dimitrije/pluginhub-api/internal/metrics"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const orphanCleanupLock = "orphan-cleanup"

// OrphanReport is one full scan of ownership and version integrity.
type OrphanReport struct {
	Sites           []models.Site              `json:"sites"`
	Plugins         []models.Plugin            `json:"plugins"`
	CorruptVersions []reconcile.CorruptVersion `json:"corrupt_versions"`
	ScannedAt       time.Time                  `json:"scanned_at"`
}

// CleanupResult counts entities handled by a cleanup run. Failures are
// returned together as the run's error.
type CleanupResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type OrphanService struct {
	db        *database.DB
	sites     *SiteService
	plugins   *PluginService
	ownership *OwnershipService
	activity  *ActivityService
	locker    lock.Locker
	lockTTL   time.Duration
	metrics   *metrics.ReconcileMetrics
	now       func() time.Time
}

func NewOrphanService(
	db *database.DB,
	sites *SiteService,
	plugins *PluginService,
	ownership *OwnershipService,
	activity *ActivityService,
	locker lock.Locker,
	lockTTL time.Duration,
	m *metrics.ReconcileMetrics,
) *OrphanService {
	return &OrphanService{
		db:        db,
		sites:     sites,
		plugins:   plugins,
		ownership: ownership,
		activity:  activity,
		locker:    locker,
		lockTTL:   lockTTL,
		metrics:   m,
		now:       time.Now,
	}
}

// Scan loads every user, team, site and plugin and reports the sites and
// plugins whose owner no longer exists plus every version without a download URL.
func (s *OrphanService) Scan(ctx context.Context) (*OrphanReport, error) {
	userIDs, err := queryIDs(ctx, s.db.Pool, `SELECT id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	teamIDs, err := queryIDs(ctx, s.db.Pool, `SELECT id FROM teams`)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	sites, err := s.sites.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}
	plugins, err := s.plugins.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}

	ix := reconcile.NewOwnerIndex(userIDs, teamIDs)
	report := &OrphanReport{
		Sites:           nonNil(reconcile.OrphanedSites(sites, ix)),
		Plugins:         nonNil(reconcile.OrphanedPlugins(plugins, ix)),
		CorruptVersions: nonNil(reconcile.CorruptVersions(plugins)),
		ScannedAt:       s.now(),
	}
	s.metrics.SetOrphans(len(report.Sites), len(report.Plugins))
	s.metrics.SetCorruptVersions(len(report.CorruptVersions))
	return report, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// withLock runs fn while holding the cleanup lease so two admins, or an admin
// and the scheduler, never clean the same set at once.
func (s *OrphanService) withLock(ctx context.Context, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	lease, err := s.locker.Acquire(ctx, orphanCleanupLock, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return ErrCleanupInProgress
		}
		return fmt.Errorf("failed to acquire cleanup lock: %w", err)
	}
	defer func() { _ = lease.Release(context.WithoutCancel(ctx)) }()
	return fn()
}

func (s *OrphanService) DeleteOrphanedSites(ctx context.Context, actorEmail string) (CleanupResult, error) {
	var res CleanupResult
	err := s.withLock(ctx, func() error {
		report, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		var errs error
		for _, site := range report.Sites {
			errs = tally(&res, errs, "site", site.ID, s.sites.Delete(ctx, actorEmail, site.ID))
		}
		return errs
	})
	return res, err
}

func (s *OrphanService) DeleteOrphanedPlugins(ctx context.Context, actorEmail string) (CleanupResult, error) {
	var res CleanupResult
	err := s.withLock(ctx, func() error {
		report, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		var errs error
		for _, p := range report.Plugins {
			errs = tally(&res, errs, "plugin", p.ID, s.plugins.Delete(ctx, actorEmail, p.ID))
		}
		return errs
	})
	return res, err
}

// TransferOrphans hands every orphaned site and plugin to target.
func (s *OrphanService) TransferOrphans(ctx context.Context, actorEmail string, target models.Owner) (CleanupResult, error) {
	var res CleanupResult
	if err := target.Validate(); err != nil {
		return res, err
	}
	err := s.withLock(ctx, func() error {
		report, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		var errs error
		for _, site := range report.Sites {
			_, err := s.ownership.TransferSite(ctx, actorEmail, site.ID, target)
			if errors.Is(err, ErrOwnerNotFound) {
				return err
			}
			errs = tally(&res, errs, "site", site.ID, err)
		}
		for _, p := range report.Plugins {
			_, err := s.ownership.TransferPlugin(ctx, actorEmail, p.ID, target)
			if errors.Is(err, ErrOwnerNotFound) {
				return err
			}
			errs = tally(&res, errs, "plugin", p.ID, err)
		}
		return errs
	})
	return res, err
}

// CleanCorruptVersions strips versions without a download URL from every
// plugin, one transaction per plugin, and recomputes latest_version.
func (s *OrphanService) CleanCorruptVersions(ctx context.Context, actorEmail string) (CleanupResult, error) {
	var res CleanupResult
	err := s.withLock(ctx, func() error {
		report, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		seen := make(map[uuid.UUID]bool)
		var errs error
		for _, cv := range report.CorruptVersions {
			if seen[cv.PluginID] {
				continue
			}
			seen[cv.PluginID] = true
			errs = tally(&res, errs, "plugin", cv.PluginID, s.cleanPluginVersions(ctx, actorEmail, cv.PluginID))
		}
		return errs
	})
	return res, err
}

func (s *OrphanService) cleanPluginVersions(ctx context.Context, actorEmail string, pluginID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	plugin, err := scanPlugin(tx.QueryRow(ctx, `SELECT `+pluginColumns+` FROM plugins WHERE id = $1 FOR UPDATE`, pluginID))
	if err != nil {
		return err
	}
	kept, removed, _ := reconcile.RemoveCorruptVersions(plugin.Versions)
	if len(removed) == 0 {
		return nil
	}
	if err := saveVersions(ctx, tx, pluginID, kept); err != nil {
		return err
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Removed corrupt versions of " + plugin.Name,
		EntityType: models.EntityPlugin,
		EntityID:   &plugin.ID,
		Details:    fmt.Sprintf("removed %d version(s)", len(removed)),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func tally(res *CleanupResult, errs error, kind string, id uuid.UUID, err error) error {
	if err != nil {
		res.Failed++
		return multierr.Append(errs, fmt.Errorf("%s %s: %w", kind, id, err))
	}
	res.Succeeded++
	return errs
}
