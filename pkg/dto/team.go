package dto

import "github.com/dimitrije/pluginhub-api/internal/models"

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateTeamRequest struct {
	Name        *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=2000"`
	Settings    *models.TeamSettings `json:"settings"`
}

type InviteMemberRequest struct {
	Email      string `json:"email" validate:"required,email"`
	TeamRoleID string `json:"team_role_id" validate:"max=100"`
}

type TeamResponse struct {
	models.Team
	Role string `json:"role"`
}

type AcceptInviteResponse struct {
	Invite *models.TeamInvite `json:"invite"`
	Team   *models.Team       `json:"team"`
	Member models.TeamMember  `json:"member"`
	Change string             `json:"change"`
}
