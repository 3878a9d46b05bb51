package handlers

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SiteHandler struct {
	siteService      SiteServiceInterface
	teamService      TeamServiceInterface
	ownershipService OwnershipServiceInterface
	syncService      SyncServiceInterface
}

func NewSiteHandler(
	siteService SiteServiceInterface,
	teamService TeamServiceInterface,
	ownershipService OwnershipServiceInterface,
	syncService SyncServiceInterface,
) *SiteHandler {
	return &SiteHandler{
		siteService:      siteService,
		teamService:      teamService,
		ownershipService: ownershipService,
		syncService:      syncService,
	}
}

// loadSite resolves :id for the viewer. Sites the viewer cannot see are
// reported as not found; manage additionally requires ownership access.
func (h *SiteHandler) loadSite(c *drift.Context, v reconcile.Viewer, manage bool) (*models.Site, bool) {
	siteID, ok := pathID(c, "id", "site")
	if !ok {
		return nil, false
	}

	site, err := h.siteService.GetByID(c.Request.Context(), siteID)
	if err != nil {
		serviceError(c, err, "failed to load site")
		return nil, false
	}
	if v.IsAdmin || reconcile.CanManage(site.Owner, v.UserID, v.TeamIDs) {
		return site, true
	}
	if !reconcile.CanView(site.Owner, site.SharedWithTeams, v.UserID, v.TeamIDs) {
		c.NotFound("site not found")
		return nil, false
	}
	if manage {
		c.Forbidden("you cannot manage this site")
		return nil, false
	}
	site.APIKey = ""
	return site, true
}

// targetOwner parses a requested owner and checks the viewer may assign it.
func targetOwner(c *drift.Context, v reconcile.Viewer, ownerType string, ownerID uuid.UUID) (models.Owner, bool) {
	owner, err := models.ParseOwner(ownerType, ownerID)
	if err != nil {
		c.BadRequest(err.Error())
		return models.Owner{}, false
	}
	if !v.IsAdmin && !reconcile.CanManage(owner, v.UserID, v.TeamIDs) {
		c.Forbidden("you cannot assign to this owner")
		return models.Owner{}, false
	}
	return owner, true
}

func (h *SiteHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	sites, err := h.siteService.ListAccessible(c.Request.Context(), v.UserID, v.TeamIDs)
	if err != nil {
		internalError(c, err, "failed to list sites")
		return
	}
	for i := range sites {
		if !v.IsAdmin && !reconcile.CanManage(sites[i].Owner, v.UserID, v.TeamIDs) {
			sites[i].APIKey = ""
		}
	}

	_ = c.JSON(200, sites)
}

func (h *SiteHandler) Create(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateSiteRequest
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

	site, err := h.siteService.Create(c.Request.Context(), user, services.SiteInput{
		Name:            req.Name,
		URL:             req.URL,
		Owner:           owner,
		SharedWithTeams: req.SharedWithTeams,
	})
	if err != nil {
		serviceError(c, err, "failed to create site")
		return
	}

	_ = c.JSON(201, site)
}

func (h *SiteHandler) Get(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	site, ok := h.loadSite(c, v, false)
	if !ok {
		return
	}

	_ = c.JSON(200, site)
}

func (h *SiteHandler) Update(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	site, ok := h.loadSite(c, v, true)
	if !ok {
		return
	}

	var req dto.UpdateSiteRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.siteService.Update(c.Request.Context(), site.ID, services.SiteUpdate{
		Name:            req.Name,
		URL:             req.URL,
		SharedWithTeams: req.SharedWithTeams,
	})
	if err != nil {
		serviceError(c, err, "failed to update site")
		return
	}

	_ = c.JSON(200, updated)
}

func (h *SiteHandler) Delete(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	site, ok := h.loadSite(c, v, true)
	if !ok {
		return
	}

	if err := h.siteService.Delete(c.Request.Context(), user.Email, site.ID); err != nil {
		serviceError(c, err, "failed to delete site")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "site deleted"})
}

func (h *SiteHandler) TestConnection(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	site, ok := h.loadSite(c, v, true)
	if !ok {
		return
	}

	result, err := h.syncService.TestConnection(c.Request.Context(), site.ID)
	if err != nil {
		serviceError(c, err, "failed to test connection")
		return
	}

	_ = c.JSON(200, result)
}

func (h *SiteHandler) Transfer(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}
	site, ok := h.loadSite(c, v, true)
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

	updated, err := h.ownershipService.TransferSite(c.Request.Context(), user.Email, site.ID, target)
	if err != nil {
		serviceError(c, err, "failed to transfer site")
		return
	}

	_ = c.JSON(200, updated)
}
