package handlers

import (
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// InviteHandler serves the invitee's side of team invites.
type InviteHandler struct {
	teamService TeamServiceInterface
}

func NewInviteHandler(teamService TeamServiceInterface) *InviteHandler {
	return &InviteHandler{teamService: teamService}
}

func (h *InviteHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	invites, err := h.teamService.GetMyInvites(c.Request.Context(), user.Email)
	if err != nil {
		internalError(c, err, "failed to get invites")
		return
	}

	_ = c.JSON(200, invites)
}

func (h *InviteHandler) Accept(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	inviteID, ok := pathID(c, "inviteId", "invite")
	if !ok {
		return
	}

	result, err := h.teamService.AcceptInvite(c.Request.Context(), user, inviteID)
	if err != nil {
		serviceError(c, err, "failed to accept invite")
		return
	}

	_ = c.JSON(200, dto.AcceptInviteResponse{
		Invite: result.Invite,
		Team:   result.Team,
		Member: result.Member,
		Change: result.Change.String(),
	})
}

func (h *InviteHandler) Decline(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	inviteID, ok := pathID(c, "inviteId", "invite")
	if !ok {
		return
	}

	if err := h.teamService.DeclineInvite(c.Request.Context(), user, inviteID); err != nil {
		serviceError(c, err, "failed to decline invite")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "invite declined"})
}
