package scheduler

import (
	"context"

	"github.com/dimitrije/pluginhub-api/internal/config"
	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/dimitrije/pluginhub-api/internal/services"
)

const (
	JobOrphanScan = "orphan-scan"
	JobSiteSync   = "site-sync"
)

type OrphanScanner interface {
	Scan(ctx context.Context) (*services.OrphanReport, error)
}

type SiteSyncer interface {
	SyncAll(ctx context.Context) (services.SyncSummary, error)
}

// OrphanScanJob reports orphaned entities. It never deletes anything; cleanup
// stays an admin action.
func OrphanScanJob(spec string, orphans OrphanScanner, log *logger.Logger) Job {
	return Job{
		Name: JobOrphanScan,
		Spec: spec,
		Run: func(ctx context.Context) error {
			report, err := orphans.Scan(ctx)
			if err != nil {
				return err
			}
			log.Info(log.WithFields(ctx, map[string]any{
				"orphaned_sites":   len(report.Sites),
				"orphaned_plugins": len(report.Plugins),
				"corrupt_versions": len(report.CorruptVersions),
			}), "orphan scan finished")
			return nil
		},
	}
}

func SiteSyncJob(spec string, syncer SiteSyncer, log *logger.Logger) Job {
	return Job{
		Name: JobSiteSync,
		Spec: spec,
		Run: func(ctx context.Context) error {
			summary, err := syncer.SyncAll(ctx)
			log.Info(log.WithFields(ctx, map[string]any{
				"sites":  summary.Sites,
				"synced": summary.Synced,
				"failed": summary.Failed,
			}), "site sync finished")
			return err
		},
	}
}

// RegisterDefaults schedules the built-in jobs from cfg.
func (s *Scheduler) RegisterDefaults(cfg config.SchedulerConfig, orphans OrphanScanner, syncer SiteSyncer) error {
	if err := s.Register(OrphanScanJob(cfg.OrphanScanSchedule, orphans, s.log)); err != nil {
		return err
	}
	return s.Register(SiteSyncJob(cfg.SiteSyncSchedule, syncer, s.log))
}
