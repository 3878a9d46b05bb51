package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/dimitrije/pluginhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTeamTest(t *testing.T) (*testutil.MockTeamService, *testutil.MockEmailService, *TeamHandler) {
	t.Helper()
	mockTeamService := new(testutil.MockTeamService)
	mockEmailService := new(testutil.MockEmailService)
	handler := NewTeamHandler(mockTeamService, mockEmailService, logger.Nop(), "http://localhost:4200")
	return mockTeamService, mockEmailService, handler
}

func TestTeamHandler_Create_Success(t *testing.T) {
	mockTeamService, _, handler := setupTeamTest(t)
	user := testUser(models.RoleUser)
	team := &models.Team{ID: uuid.New(), Name: "My Team", OwnerID: user.ID}

	mockTeamService.On("Create", mock.Anything, user, "My Team", "").Return(team, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/teams", handler.Create)

	rec := do(app, http.MethodPost, "/teams", token, dto.CreateTeamRequest{Name: "My Team"})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.TeamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, team.ID, response.ID)
	assert.Equal(t, "owner", response.Role)

	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Create_EmptyName(t *testing.T) {
	_, _, handler := setupTeamTest(t)
	user := testUser(models.RoleUser)

	token, auth := signIn(t, user)
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/teams", handler.Create)

	rec := do(app, http.MethodPost, "/teams", token, dto.CreateTeamRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func TestTeamHandler_Get_NonMemberNotFound(t *testing.T) {
	mockTeamService, _, handler := setupTeamTest(t)
	user := testUser(models.RoleUser)
	team := &models.Team{ID: uuid.New(), Name: "Other", OwnerID: uuid.New()}

	mockTeamService.On("GetByID", mock.Anything, team.ID).Return(team, nil)
	mockTeamService.On("IsMember", mock.Anything, team.ID, user.ID).Return(false, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Get("/teams/:id", handler.Get)

	rec := do(app, http.MethodGet, "/teams/"+team.ID.String(), token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Invite_SendsEmail(t *testing.T) {
	mockTeamService, mockEmailService, handler := setupTeamTest(t)
	user := testUser(models.RoleUser)
	team := &models.Team{ID: uuid.New(), Name: "Agency", OwnerID: user.ID,
		Settings: models.TeamSettings{DefaultTeamRoleID: models.TeamRoleMember}}
	invite := &models.TeamInvite{ID: uuid.New(), TeamID: team.ID, InvitedEmail: "new@example.com",
		TeamRoleID: models.TeamRoleMember, Status: models.InviteStatusPending}

	mockTeamService.On("GetByID", mock.Anything, team.ID).Return(team, nil)
	mockTeamService.On("Invite", mock.Anything, user, team.ID, "new@example.com", models.TeamRoleMember).Return(invite, nil)
	mockEmailService.On("IsConfigured").Return(true)
	mockEmailService.On("SendTeamInvite", "new@example.com", "Agency", "Test User", models.TeamRoleMember,
		"http://localhost:4200/invites").Return(nil)

	token, auth := signIn(t, user)
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/teams/:id/invites", handler.Invite)

	rec := do(app, http.MethodPost, "/teams/"+team.ID.String()+"/invites", token,
		dto.InviteMemberRequest{Email: "new@example.com"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockTeamService.AssertExpectations(t)
	mockEmailService.AssertExpectations(t)
}

func TestTeamHandler_Invite_MemberWithoutPermission(t *testing.T) {
	mockTeamService, _, handler := setupTeamTest(t)
	user := testUser(models.RoleUser)
	team := &models.Team{ID: uuid.New(), Name: "Agency", OwnerID: uuid.New()}

	mockTeamService.On("GetByID", mock.Anything, team.ID).Return(team, nil)
	mockTeamService.On("IsMember", mock.Anything, team.ID, user.ID).Return(true, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/teams/:id/invites", handler.Invite)

	rec := do(app, http.MethodPost, "/teams/"+team.ID.String()+"/invites", token,
		dto.InviteMemberRequest{Email: "new@example.com"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockTeamService.AssertNotCalled(t, "Invite", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTeamHandler_Leave_OwnerRejected(t *testing.T) {
	mockTeamService, _, handler := setupTeamTest(t)
	user := testUser(models.RoleUser)
	team := &models.Team{ID: uuid.New(), Name: "Agency", OwnerID: user.ID}

	mockTeamService.On("LeaveTeam", mock.Anything, team.ID, user.ID).Return(services.ErrOwnerCannotLeave)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/teams/:id/leave", handler.Leave)

	rec := do(app, http.MethodPost, "/teams/"+team.ID.String()+"/leave", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "owner cannot leave")
}
