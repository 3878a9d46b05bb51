package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/connector"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ConnectionResult is the outcome of a single connector handshake.
type ConnectionResult struct {
	Site  *models.Site `json:"site"`
	OK    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
}

type SyncSummary struct {
	Sites  int `json:"sites"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// SyncService keeps site connection state and installation records in line
// with what the connector reports.
type SyncService struct {
	sites       *SiteService
	plugins     *PluginService
	teams       *TeamService
	connector   SiteConnector
	concurrency int
	now         func() time.Time
}

func NewSyncService(sites *SiteService, plugins *PluginService, teams *TeamService, conn SiteConnector, concurrency int) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{sites: sites, plugins: plugins, teams: teams, connector: conn, concurrency: concurrency, now: time.Now}
}

// TestConnection performs a handshake and records the outcome on the site.
// A failed handshake is a result, not an error.
func (s *SyncService) TestConnection(ctx context.Context, siteID uuid.UUID) (*ConnectionResult, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return s.testConnection(ctx, site)
}

func (s *SyncService) testConnection(ctx context.Context, site *models.Site) (*ConnectionResult, error) {
	checkedAt := s.now()
	info, connErr := s.connector.TestConnection(ctx, targetOf(site))

	status := models.ConnectionStatusActive
	var wpVersion *string
	if connErr != nil {
		status = models.ConnectionStatusError
	} else if info.WPVersion != "" {
		wpVersion = &info.WPVersion
	}
	if err := s.sites.RecordConnectionCheck(ctx, site.ID, status, wpVersion, checkedAt); err != nil {
		return nil, err
	}

	site.ConnectionStatus = status
	site.ConnectionCheckedAt = &checkedAt
	if wpVersion != nil {
		site.WPVersion = wpVersion
	}
	res := &ConnectionResult{Site: site, OK: connErr == nil}
	if connErr != nil {
		res.Error = connErr.Error()
	}
	return res, nil
}

// SyncAll checks every site and reconciles its installation records against
// the plugins the connector reports. Reported plugins are matched by slug
// against the plugins the site's owner can view; recorded installations stay
// as long as their plugin's slug is still reported.
func (s *SyncService) SyncAll(ctx context.Context) (SyncSummary, error) {
	sites, err := s.sites.ListAll(ctx)
	if err != nil {
		return SyncSummary{}, fmt.Errorf("failed to load sites: %w", err)
	}
	plugins, err := s.plugins.ListAll(ctx)
	if err != nil {
		return SyncSummary{}, fmt.Errorf("failed to load plugins: %w", err)
	}
	teams, err := s.teams.ListAll(ctx)
	if err != nil {
		return SyncSummary{}, fmt.Errorf("failed to load teams: %w", err)
	}
	members, err := s.teams.MembersByTeam(ctx)
	if err != nil {
		return SyncSummary{}, fmt.Errorf("failed to load team members: %w", err)
	}

	summary := SyncSummary{Sites: len(sites)}
	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for i := range sites {
		site := &sites[i]
		lib := newSiteLibrary(site.Owner, plugins, teams, members)
		g.Go(func() error {
			err := s.syncSite(ctx, site, lib)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				errs = multierr.Append(errs, fmt.Errorf("site %s: %w", site.ID, err))
			} else {
				summary.Synced++
			}
			return nil
		})
	}
	_ = g.Wait()
	return summary, errs
}

// siteLibrary is what a sync may attach to one site.
type siteLibrary struct {
	byID   map[uuid.UUID]*models.Plugin
	bySlug map[string]uuid.UUID
}

// newSiteLibrary indexes every plugin by id and, by slug, the plugins the
// site's owner can view. On slug collisions the owner's own plugin wins.
func newSiteLibrary(owner models.Owner, plugins []models.Plugin, teams []models.Team,
	members map[uuid.UUID][]models.TeamMember) siteLibrary {
	var userID uuid.UUID
	var teamIDs []uuid.UUID
	switch owner.Type {
	case models.OwnerTypeUser:
		userID = owner.ID
		teamIDs = reconcile.UserTeamIDs(teams, members, owner.ID)
	case models.OwnerTypeTeam:
		teamIDs = []uuid.UUID{owner.ID}
	}

	lib := siteLibrary{byID: make(map[uuid.UUID]*models.Plugin, len(plugins)), bySlug: make(map[string]uuid.UUID)}
	for i := range plugins {
		p := &plugins[i]
		lib.byID[p.ID] = p
		if !reconcile.CanView(p.Owner, p.SharedWithTeams, userID, teamIDs) {
			continue
		}
		if prev, ok := lib.bySlug[p.Slug]; ok && lib.byID[prev].Owner == owner {
			continue
		}
		lib.bySlug[p.Slug] = p.ID
	}
	return lib
}

func (s *SyncService) syncSite(ctx context.Context, site *models.Site, lib siteLibrary) error {
	res, err := s.testConnection(ctx, site)
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("connection failed: %s", res.Error)
	}

	installed, err := s.connector.InstalledPlugins(ctx, targetOf(site))
	if err != nil {
		return err
	}
	reported := make(map[string]connector.InstalledPlugin, len(installed))
	for _, ip := range installed {
		reported[ip.Slug] = ip
	}

	recorded, err := s.plugins.InstallationsBySite(ctx, site.ID)
	if err != nil {
		return err
	}
	matched := make(map[string]bool, len(recorded))
	for _, inst := range recorded {
		var ip connector.InstalledPlugin
		ok := false
		if p := lib.byID[inst.PluginID]; p != nil {
			ip, ok = reported[p.Slug]
		}
		if !ok {
			if err := s.plugins.RemoveInstall(ctx, inst.PluginID, site.ID); err != nil {
				return err
			}
			continue
		}
		matched[ip.Slug] = true
		if err := s.plugins.RecordInstall(ctx, inst.PluginID, site.ID, ip.Version, ip.IsActive); err != nil {
			return err
		}
	}

	for _, ip := range installed {
		pluginID, ok := lib.bySlug[ip.Slug]
		if !ok || matched[ip.Slug] {
			continue
		}
		matched[ip.Slug] = true
		if err := s.plugins.RecordInstall(ctx, pluginID, site.ID, ip.Version, ip.IsActive); err != nil {
			return err
		}
	}
	return nil
}
