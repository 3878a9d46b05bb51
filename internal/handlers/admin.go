package handlers

import (
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// AdminHandler serves the platform maintenance tools. Routes are mounted
// behind RequireAdmin.
type AdminHandler struct {
	orphanService OrphanServiceInterface
	syncService   SyncServiceInterface
}

func NewAdminHandler(orphanService OrphanServiceInterface, syncService SyncServiceInterface) *AdminHandler {
	return &AdminHandler{
		orphanService: orphanService,
		syncService:   syncService,
	}
}

// writeCleanup reports partial failures in a 200; an error before any entity
// was touched goes through the usual mapping.
func writeCleanup(c *drift.Context, res services.CleanupResult, err error) {
	if err != nil && res.Succeeded+res.Failed == 0 {
		serviceError(c, err, "cleanup failed")
		return
	}
	resp := dto.CleanupResponse{Succeeded: res.Succeeded, Failed: res.Failed}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = c.JSON(200, resp)
}

func (h *AdminHandler) Orphans(c *drift.Context) {
	report, err := h.orphanService.Scan(c.Request.Context())
	if err != nil {
		internalError(c, err, "failed to scan for orphans")
		return
	}
	_ = c.JSON(200, report)
}

func (h *AdminHandler) DeleteOrphans(c *drift.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.DeleteOrphansRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		res services.CleanupResult
		err error
	)
	switch req.Kind {
	case "sites":
		res, err = h.orphanService.DeleteOrphanedSites(c.Request.Context(), admin.Email)
	case "plugins":
		res, err = h.orphanService.DeleteOrphanedPlugins(c.Request.Context(), admin.Email)
	}
	writeCleanup(c, res, err)
}

func (h *AdminHandler) TransferOrphans(c *drift.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := models.ParseOwner(req.OwnerType, req.OwnerID)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	res, err := h.orphanService.TransferOrphans(c.Request.Context(), admin.Email, target)
	writeCleanup(c, res, err)
}

func (h *AdminHandler) CleanVersions(c *drift.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.orphanService.CleanCorruptVersions(c.Request.Context(), admin.Email)
	writeCleanup(c, res, err)
}

func (h *AdminHandler) Sync(c *drift.Context) {
	summary, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil && summary.Synced+summary.Failed == 0 {
		internalError(c, err, "failed to sync sites")
		return
	}
	_ = c.JSON(200, summary)
}
