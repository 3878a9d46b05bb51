package handlers

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type PluginHandler struct {
	pluginService    PluginServiceInterface
	siteService      SiteServiceInterface
	teamService      TeamServiceInterface
	ownershipService OwnershipServiceInterface
	installService   InstallServiceInterface
}

func NewPluginHandler(
	pluginService PluginServiceInterface,
	siteService SiteServiceInterface,
	teamService TeamServiceInterface,
	ownershipService OwnershipServiceInterface,
	installService InstallServiceInterface,
) *PluginHandler {
	return &PluginHandler{
		pluginService:    pluginService,
		siteService:      siteService,
		teamService:      teamService,
		ownershipService: ownershipService,
		installService:   installService,
	}
}

func (h *PluginHandler) loadPlugin(c *drift.Context, v reconcile.Viewer, manage bool) (*models.Plugin, bool) {
	pluginID, ok := pathID(c, "id", "plugin")
	if !ok {
		return nil, false
	}

	plugin, err := h.pluginService.GetByID(c.Request.Context(), pluginID)
	if err != nil {
		serviceError(c, err, "failed to load plugin")
		return nil, false
	}
	if v.IsAdmin || reconcile.CanManage(plugin.Owner, v.UserID, v.TeamIDs) {
		return plugin, true
	}
	if !reconcile.CanView(plugin.Owner, plugin.SharedWithTeams, v.UserID, v.TeamIDs) {
		c.NotFound("plugin not found")
		return nil, false
	}
	if manage {
		c.Forbidden("you cannot manage this plugin")
		return nil, false
	}
	return plugin, true
}

// viewerAndPlugin is the common preamble of every :id route.
func (h *PluginHandler) viewerAndPlugin(c *drift.Context, manage bool) (*models.User, reconcile.Viewer, *models.Plugin, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, reconcile.Viewer{}, nil, false
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return nil, reconcile.Viewer{}, nil, false
	}
	plugin, ok := h.loadPlugin(c, v, manage)
	if !ok {
		return nil, reconcile.Viewer{}, nil, false
	}
	return user, v, plugin, true
}

func (h *PluginHandler) canManageSite(c *drift.Context, v reconcile.Viewer, siteID uuid.UUID) bool {
	site, err := h.siteService.GetByID(c.Request.Context(), siteID)
	if err != nil {
		serviceError(c, err, "failed to load site")
		return false
	}
	if !v.IsAdmin && !reconcile.CanManage(site.Owner, v.UserID, v.TeamIDs) {
		c.Forbidden("you cannot manage site " + site.Name)
		return false
	}
	return true
}

func (h *PluginHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	plugins, err := h.pluginService.ListAccessible(c.Request.Context(), v.UserID, v.TeamIDs)
	if err != nil {
		internalError(c, err, "failed to list plugins")
		return
	}

	_ = c.JSON(200, plugins)
}

func (h *PluginHandler) Create(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreatePluginRequest
	if !bindJSON(c, &req) {
		return
	}

	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	owner, ok := targetOwner(c, v, req.OwnerType, req.OwnerID)
	if !ok {
		return
	}

	plugin, err := h.pluginService.Create(c.Request.Context(), user, services.PluginInput{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		Author:          req.Author,
		AuthorURL:       req.AuthorURL,
		Owner:           owner,
		Source:          req.Source,
		Version:         req.Version,
		DownloadURL:     req.DownloadURL,
		SharedWithTeams: req.SharedWithTeams,
	})
	if err != nil {
		serviceError(c, err, "failed to create plugin")
		return
	}

	_ = c.JSON(201, plugin)
}

func (h *PluginHandler) Get(c *drift.Context) {
	_, _, plugin, ok := h.viewerAndPlugin(c, false)
	if !ok {
		return
	}
	_ = c.JSON(200, plugin)
}

func (h *PluginHandler) Delete(c *drift.Context) {
	user, _, plugin, ok := h.viewerAndPlugin(c, true)
	if !ok {
		return
	}

	if err := h.pluginService.Delete(c.Request.Context(), user.Email, plugin.ID); err != nil {
		serviceError(c, err, "failed to delete plugin")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "plugin deleted"})
}

func (h *PluginHandler) AddVersion(c *drift.Context) {
	user, _, plugin, ok := h.viewerAndPlugin(c, true)
	if !ok {
		return
	}

	var req dto.AddVersionRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.pluginService.AddVersion(c.Request.Context(), user.Email, plugin.ID, req.Version, req.DownloadURL)
	if err != nil {
		serviceError(c, err, "failed to add version")
		return
	}

	_ = c.JSON(201, updated)
}

// Install pushes the plugin to several sites the caller manages. Per-site
// failures are part of the 200 response.
func (h *PluginHandler) Install(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	plugin, ok := h.loadPlugin(c, v, false)
	if !ok {
		return
	}

	var req dto.InstallPluginRequest
	if !bindJSON(c, &req) {
		return
	}

	for _, siteID := range req.SiteIDs {
		if !h.canManageSite(c, v, siteID) {
			return
		}
	}

	results, err := h.installService.Install(c.Request.Context(), user, plugin.ID, req.SiteIDs, req.Version)
	if err != nil {
		serviceError(c, err, "failed to install plugin")
		return
	}

	_ = c.JSON(200, results)
}

func (h *PluginHandler) Toggle(c *drift.Context) {
	user, v, plugin, ok := h.viewerAndPlugin(c, false)
	if !ok {
		return
	}
	siteID, ok := pathID(c, "siteId", "site")
	if !ok || !h.canManageSite(c, v, siteID) {
		return
	}

	active, err := h.installService.Toggle(c.Request.Context(), user, plugin.ID, siteID)
	if err != nil {
		serviceError(c, err, "failed to toggle plugin")
		return
	}

	_ = c.JSON(200, dto.ToggleResponse{SiteID: siteID, IsActive: active})
}

func (h *PluginHandler) Uninstall(c *drift.Context) {
	user, v, plugin, ok := h.viewerAndPlugin(c, false)
	if !ok {
		return
	}
	siteID, ok := pathID(c, "siteId", "site")
	if !ok || !h.canManageSite(c, v, siteID) {
		return
	}

	if err := h.installService.Uninstall(c.Request.Context(), user, plugin.ID, siteID); err != nil {
		serviceError(c, err, "failed to uninstall plugin")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "plugin uninstalled"})
}

func (h *PluginHandler) Transfer(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	plugin, ok := h.loadPlugin(c, v, true)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	target, ok := targetOwner(c, v, req.OwnerType, req.OwnerID)
	if !ok {
		return
	}

	updated, err := h.ownershipService.TransferPlugin(c.Request.Context(), user.Email, plugin.ID, target)
	if err != nil {
		serviceError(c, err, "failed to transfer plugin")
		return
	}

	_ = c.JSON(200, updated)
}
