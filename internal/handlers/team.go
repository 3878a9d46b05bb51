package handlers

import (
	"errors"

	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TeamHandler struct {
	teamService  TeamServiceInterface
	emailService EmailServiceInterface
	log          *logger.Logger
	baseURL      string
}

func NewTeamHandler(teamService TeamServiceInterface, emailService EmailServiceInterface, log *logger.Logger, baseURL string) *TeamHandler {
	return &TeamHandler{
		teamService:  teamService,
		emailService: emailService,
		log:          log,
		baseURL:      baseURL,
	}
}

type teamAccess int

const (
	accessMember teamAccess = iota
	accessOwner
)

// loadTeam resolves :id and checks the caller's standing in the team.
// Platform admins pass every check.
func (h *TeamHandler) loadTeam(c *drift.Context, user *models.User, need teamAccess) (*models.Team, bool) {
	teamID, ok := pathID(c, "id", "team")
	if !ok {
		return nil, false
	}

	ctx := c.Request.Context()
	team, err := h.teamService.GetByID(ctx, teamID)
	if err != nil {
		serviceError(c, err, "failed to load team")
		return nil, false
	}
	if user.IsAdmin() || team.OwnerID == user.ID {
		return team, true
	}

	if need == accessOwner {
		c.Forbidden("only the team owner can do this")
		return nil, false
	}
	isMember, err := h.teamService.IsMember(ctx, teamID, user.ID)
	if err != nil {
		internalError(c, err, "failed to check membership")
		return nil, false
	}
	if !isMember {
		c.NotFound("team not found")
		return nil, false
	}
	return team, true
}

func roleIn(team *models.Team, userID uuid.UUID) string {
	if team.OwnerID == userID {
		return "owner"
	}
	return "member"
}

func (h *TeamHandler) Create(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), user, req.Name, req.Description)
	if err != nil {
		internalError(c, err, "failed to create team")
		return
	}

	_ = c.JSON(201, dto.TeamResponse{Team: *team, Role: "owner"})
}

func (h *TeamHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	teams, err := h.teamService.GetUserTeams(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, err, "failed to get teams")
		return
	}

	response := make([]dto.TeamResponse, len(teams))
	for i, t := range teams {
		response[i] = dto.TeamResponse{Team: t, Role: roleIn(&t, user.ID)}
	}

	_ = c.JSON(200, response)
}

func (h *TeamHandler) Get(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessMember)
	if !ok {
		return
	}

	_ = c.JSON(200, dto.TeamResponse{Team: *team, Role: roleIn(team, user.ID)})
}

func (h *TeamHandler) Update(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessOwner)
	if !ok {
		return
	}

	var req dto.UpdateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.teamService.Update(c.Request.Context(), team.ID, services.TeamUpdate{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		serviceError(c, err, "failed to update team")
		return
	}

	_ = c.JSON(200, dto.TeamResponse{Team: *updated, Role: roleIn(updated, user.ID)})
}

func (h *TeamHandler) Delete(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessOwner)
	if !ok {
		return
	}

	if err := h.teamService.Delete(c.Request.Context(), user.Email, team.ID); err != nil {
		serviceError(c, err, "failed to delete team")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "team deleted"})
}

func (h *TeamHandler) Block(c *drift.Context) {
	h.setBlocked(c, true)
}

func (h *TeamHandler) Unblock(c *drift.Context) {
	h.setBlocked(c, false)
}

func (h *TeamHandler) setBlocked(c *drift.Context, blocked bool) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	teamID, ok := pathID(c, "id", "team")
	if !ok {
		return
	}

	team, err := h.teamService.SetBlocked(c.Request.Context(), admin.Email, teamID, blocked)
	if err != nil {
		serviceError(c, err, "failed to update team")
		return
	}

	_ = c.JSON(200, team)
}

func (h *TeamHandler) GetMembers(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessMember)
	if !ok {
		return
	}

	members, err := h.teamService.GetMembers(c.Request.Context(), team.ID)
	if err != nil {
		internalError(c, err, "failed to get members")
		return
	}

	_ = c.JSON(200, members)
}

func (h *TeamHandler) RemoveMember(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessOwner)
	if !ok {
		return
	}
	memberID, ok := pathID(c, "memberId", "member")
	if !ok {
		return
	}

	if memberID == team.OwnerID {
		c.BadRequest("cannot remove the team owner")
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), team.ID, memberID); err != nil {
		serviceError(c, err, "failed to remove member")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "member removed"})
}

func (h *TeamHandler) Leave(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	teamID, ok := pathID(c, "id", "team")
	if !ok {
		return
	}

	if err := h.teamService.LeaveTeam(c.Request.Context(), teamID, user.ID); err != nil {
		if errors.Is(err, services.ErrOwnerCannotLeave) {
			c.BadRequest("owner cannot leave the team, delete it instead")
			return
		}
		serviceError(c, err, "failed to leave team")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "left team"})
}

// Invite is open to the owner, and to members when the team allows member invites.
func (h *TeamHandler) Invite(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessMember)
	if !ok {
		return
	}
	if team.OwnerID != user.ID && !user.IsAdmin() && !team.Settings.AllowMemberInvites {
		c.Forbidden("only the team owner can invite members")
		return
	}

	var req dto.InviteMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TeamRoleID == "" {
		req.TeamRoleID = team.Settings.DefaultTeamRoleID
	}

	ctx := c.Request.Context()
	invite, err := h.teamService.Invite(ctx, user, team.ID, req.Email, req.TeamRoleID)
	if err != nil {
		serviceError(c, err, "failed to create invite")
		return
	}

	if h.emailService != nil && h.emailService.IsConfigured() {
		inviter := user.FullName
		if inviter == "" {
			inviter = user.Email
		}
		if err := h.emailService.SendTeamInvite(invite.InvitedEmail, team.Name, inviter, invite.TeamRoleID, h.baseURL+"/invites"); err != nil {
			h.log.Warn(h.log.WithField(ctx, "error", err.Error()), "failed to send invite email")
		}
	}

	_ = c.JSON(201, invite)
}

func (h *TeamHandler) GetTeamInvites(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessOwner)
	if !ok {
		return
	}

	invites, err := h.teamService.GetTeamPendingInvites(c.Request.Context(), team.ID)
	if err != nil {
		internalError(c, err, "failed to get invites")
		return
	}

	_ = c.JSON(200, invites)
}

func (h *TeamHandler) CancelInvite(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	team, ok := h.loadTeam(c, user, accessOwner)
	if !ok {
		return
	}
	inviteID, ok := pathID(c, "inviteId", "invite")
	if !ok {
		return
	}

	if err := h.teamService.CancelInvite(c.Request.Context(), inviteID, team.ID); err != nil {
		serviceError(c, err, "failed to cancel invite")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "invite cancelled"})
}
