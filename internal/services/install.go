package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/pluginhub-api/internal/connector"
	"github.com/dimitrije/pluginhub-api/internal/metrics"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SiteConnector is the part of the WordPress connector the services drive.
type SiteConnector interface {
	TestConnection(ctx context.Context, t connector.Target) (*connector.ConnectionInfo, error)
	InstalledPlugins(ctx context.Context, t connector.Target) ([]connector.InstalledPlugin, error)
	InstallPlugin(ctx context.Context, t connector.Target, slug, fileURL string) error
	TogglePlugin(ctx context.Context, t connector.Target, slug string) (bool, error)
	UninstallPlugin(ctx context.Context, t connector.Target, slug string) error
}

func targetOf(site *models.Site) connector.Target {
	return connector.Target{URL: site.URL, APIKey: site.APIKey}
}

// InstallResult is the outcome of installing a plugin on one site.
type InstallResult struct {
	SiteID  uuid.UUID `json:"site_id"`
	Version string    `json:"version"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
}

type InstallService struct {
	sites       *SiteService
	plugins     *PluginService
	activity    *ActivityService
	connector   SiteConnector
	concurrency int
	metrics     *metrics.ReconcileMetrics
}

func NewInstallService(
	sites *SiteService,
	plugins *PluginService,
	activity *ActivityService,
	conn SiteConnector,
	concurrency int,
	m *metrics.ReconcileMetrics,
) *InstallService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &InstallService{
		sites:       sites,
		plugins:     plugins,
		activity:    activity,
		connector:   conn,
		concurrency: concurrency,
		metrics:     m,
	}
}

// resolveVersion picks the requested version, or the latest when version is empty.
func resolveVersion(p *models.Plugin, version string) (models.PluginVersion, error) {
	if version == "" {
		if p.LatestVersion == nil {
			return models.PluginVersion{}, ErrVersionNotFound
		}
		version = *p.LatestVersion
	}
	for i := len(p.Versions) - 1; i >= 0; i-- {
		v := p.Versions[i]
		if v.Version != version {
			continue
		}
		if v.IsCorrupt() {
			return models.PluginVersion{}, ErrVersionCorrupt
		}
		return v, nil
	}
	return models.PluginVersion{}, ErrVersionNotFound
}

// Install pushes one plugin version to every site in siteIDs, a bounded number
// at a time. A failure on one site does not stop the others; each site gets
// its own result and only successful installs are recorded.
func (s *InstallService) Install(ctx context.Context, actor *models.User, pluginID uuid.UUID, siteIDs []uuid.UUID, version string) ([]InstallResult, error) {
	plugin, err := s.plugins.GetByID(ctx, pluginID)
	if err != nil {
		return nil, err
	}
	v, err := resolveVersion(plugin, version)
	if err != nil {
		return nil, err
	}

	sites := make([]*models.Site, len(siteIDs))
	for i, id := range siteIDs {
		if sites[i], err = s.sites.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	results := make([]InstallResult, len(sites))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, site := range sites {
		g.Go(func() error {
			res := InstallResult{SiteID: site.ID, Version: v.Version}
			err := s.connector.InstallPlugin(ctx, targetOf(site), plugin.Slug, v.DownloadURL)
			if err == nil {
				err = s.plugins.RecordInstall(ctx, plugin.ID, site.ID, v.Version, false)
			}
			if err != nil {
				res.Error = err.Error()
			} else {
				res.OK = true
			}
			s.metrics.IncInstall(res.OK)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	if err := s.activity.Log(ctx, nil, models.ActivityLog{
		UserEmail:  actor.Email,
		Action:     fmt.Sprintf("Installed %s %s", plugin.Name, v.Version),
		EntityType: models.EntityPlugin,
		EntityID:   &plugin.ID,
		Details:    fmt.Sprintf("%d of %d site(s) succeeded", ok, len(results)),
	}); err != nil {
		return results, err
	}
	return results, nil
}

func (s *InstallService) installation(ctx context.Context, pluginID, siteID uuid.UUID) (*models.Plugin, *models.Site, *models.PluginInstallation, error) {
	plugin, err := s.plugins.GetByID(ctx, pluginID)
	if err != nil {
		return nil, nil, nil, err
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := range plugin.InstalledOn {
		if plugin.InstalledOn[i].SiteID == siteID {
			return plugin, site, &plugin.InstalledOn[i], nil
		}
	}
	return nil, nil, nil, ErrNotInstalled
}

// Toggle flips the plugin's activation on one site and records the state the
// connector reports back.
func (s *InstallService) Toggle(ctx context.Context, actor *models.User, pluginID, siteID uuid.UUID) (bool, error) {
	plugin, site, inst, err := s.installation(ctx, pluginID, siteID)
	if err != nil {
		return false, err
	}

	active, err := s.connector.TogglePlugin(ctx, targetOf(site), plugin.Slug)
	if err != nil {
		return false, fmt.Errorf("failed to toggle plugin: %w", err)
	}
	if err := s.plugins.RecordInstall(ctx, plugin.ID, site.ID, inst.Version, active); err != nil {
		return false, err
	}

	action := "Deactivated"
	if active {
		action = "Activated"
	}
	if err := s.activity.Log(ctx, nil, models.ActivityLog{
		UserEmail:  actor.Email,
		Action:     fmt.Sprintf("%s %s", action, plugin.Name),
		EntityType: models.EntityPlugin,
		EntityID:   &plugin.ID,
		Details:    "on " + site.Name,
	}); err != nil {
		return active, err
	}
	return active, nil
}

func (s *InstallService) Uninstall(ctx context.Context, actor *models.User, pluginID, siteID uuid.UUID) error {
	plugin, site, _, err := s.installation(ctx, pluginID, siteID)
	if err != nil {
		return err
	}

	if err := s.connector.UninstallPlugin(ctx, targetOf(site), plugin.Slug); err != nil {
		return fmt.Errorf("failed to uninstall plugin: %w", err)
	}
	if err := s.plugins.RemoveInstall(ctx, plugin.ID, site.ID); err != nil {
		return fmt.Errorf("failed to remove installation: %w", err)
	}

	return s.activity.Log(ctx, nil, models.ActivityLog{
		UserEmail:  actor.Email,
		Action:     "Uninstalled " + plugin.Name,
		EntityType: models.EntityPlugin,
		EntityID:   &plugin.ID,
		Details:    "from " + site.Name,
	})
}
