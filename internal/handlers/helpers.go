package handlers

import (
	"errors"
	"net/http"

	"github.com/dimitrije/pluginhub-api/internal/connector"
	"github.com/dimitrije/pluginhub-api/internal/middleware"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

func currentUser(c *drift.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}
	return user, true
}

func pathID(c *drift.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.BadRequest("invalid " + what + " id")
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *drift.Context, req any) bool {
	if err := c.BindJSON(req); err != nil {
		c.BadRequest("invalid request body")
		return false
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return false
	}
	return true
}

func conflict(c *drift.Context, msg string) {
	_ = c.JSON(http.StatusConflict, map[string]string{
		"code":    "CONFLICT",
		"message": msg,
	})
}

func viewerFor(c *drift.Context, teams TeamServiceInterface, user *models.User) (reconcile.Viewer, bool) {
	teamIDs, err := teams.TeamIDsForUser(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, err, "failed to load teams")
		return reconcile.Viewer{}, false
	}
	return viewerOf(user, teamIDs), true
}

func viewerOf(user *models.User, teamIDs []uuid.UUID) reconcile.Viewer {
	return reconcile.Viewer{UserID: user.ID, IsAdmin: user.IsAdmin(), TeamIDs: teamIDs}
}

func internalError(c *drift.Context, err error, msg string) {
	middleware.SetError(c, err)
	c.InternalServerError(msg)
}

// serviceError maps the service sentinels to a response and falls back to a
// 500 with msg.
func serviceError(c *drift.Context, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrSiteNotFound),
		errors.Is(err, services.ErrPluginNotFound),
		errors.Is(err, services.ErrVersionNotFound),
		errors.Is(err, services.ErrNotInstalled),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrOwnerNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrInviteNotPending),
		errors.Is(err, services.ErrInviteExists),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrDuplicateSlug),
		errors.Is(err, services.ErrVersionExists),
		errors.Is(err, services.ErrCleanupInProgress):
		conflict(c, err.Error())
	case errors.Is(err, services.ErrTeamBlocked),
		errors.Is(err, services.ErrOwnerCannotLeave),
		errors.Is(err, reconcile.ErrAdminOnly),
		errors.Is(err, reconcile.ErrNotTeamMember),
		errors.Is(err, reconcile.ErrNotTeammate):
		c.Forbidden(err.Error())
	case errors.Is(err, models.ErrInvalidOwnerType),
		errors.Is(err, services.ErrVersionCorrupt),
		errors.Is(err, reconcile.ErrInvalidRecipient),
		errors.Is(err, reconcile.ErrNoRecipients):
		c.BadRequest(err.Error())
	case errors.Is(err, connector.ErrUnauthorized),
		errors.Is(err, connector.ErrRemote):
		c.BadGateway(err.Error())
	default:
		internalError(c, err, msg)
	}
}
