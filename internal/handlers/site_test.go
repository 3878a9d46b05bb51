package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/dimitrije/pluginhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type siteMocks struct {
	sites     *testutil.MockSiteService
	teams     *testutil.MockTeamService
	ownership *testutil.MockOwnershipService
	sync      *testutil.MockSyncService
}

func setupSiteTest(t *testing.T) (siteMocks, *SiteHandler) {
	t.Helper()
	m := siteMocks{
		sites:     new(testutil.MockSiteService),
		teams:     new(testutil.MockTeamService),
		ownership: new(testutil.MockOwnershipService),
		sync:      new(testutil.MockSyncService),
	}
	return m, NewSiteHandler(m.sites, m.teams, m.ownership, m.sync)
}

func TestSiteHandler_Get_SharedViewerSeesNoAPIKey(t *testing.T) {
	m, handler := setupSiteTest(t)
	user := testUser(models.RoleUser)
	teamID := uuid.New()
	site := &models.Site{ID: uuid.New(), Name: "Shop", APIKey: "secret",
		Owner: models.UserOwner(uuid.New()), SharedWithTeams: []uuid.UUID{teamID}}

	m.teams.On("TeamIDsForUser", mock.Anything, user.ID).Return([]uuid.UUID{teamID}, nil)
	m.sites.On("GetByID", mock.Anything, site.ID).Return(site, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Get("/sites/:id", handler.Get)

	rec := do(app, http.MethodGet, "/sites/"+site.ID.String(), token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, site.ID, got.ID)
	assert.Empty(t, got.APIKey)
}

func TestSiteHandler_Get_HiddenSiteNotFound(t *testing.T) {
	m, handler := setupSiteTest(t)
	user := testUser(models.RoleUser)
	site := &models.Site{ID: uuid.New(), Name: "Shop", Owner: models.TeamOwner(uuid.New())}

	m.teams.On("TeamIDsForUser", mock.Anything, user.ID).Return([]uuid.UUID{}, nil)
	m.sites.On("GetByID", mock.Anything, site.ID).Return(site, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Get("/sites/:id", handler.Get)

	rec := do(app, http.MethodGet, "/sites/"+site.ID.String(), token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSiteHandler_Delete_SharedViewerForbidden(t *testing.T) {
	m, handler := setupSiteTest(t)
	user := testUser(models.RoleUser)
	teamID := uuid.New()
	site := &models.Site{ID: uuid.New(), Name: "Shop", Owner: models.UserOwner(uuid.New()), SharedWithTeams: []uuid.UUID{teamID}}

	m.teams.On("TeamIDsForUser", mock.Anything, user.ID).Return([]uuid.UUID{teamID}, nil)
	m.sites.On("GetByID", mock.Anything, site.ID).Return(site, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Delete("/sites/:id", handler.Delete)

	rec := do(app, http.MethodDelete, "/sites/"+site.ID.String(), token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	m.sites.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSiteHandler_Create_ForeignTeamForbidden(t *testing.T) {
	m, handler := setupSiteTest(t)
	user := testUser(models.RoleUser)

	m.teams.On("TeamIDsForUser", mock.Anything, user.ID).Return([]uuid.UUID{}, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/sites", handler.Create)

	rec := do(app, http.MethodPost, "/sites", token, dto.CreateSiteRequest{
		Name:      "Shop",
		URL:       "https://shop.example.com",
		OwnerType: "team",
		OwnerID:   uuid.New(),
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	m.sites.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSiteHandler_Transfer_AdminToTeam(t *testing.T) {
	m, handler := setupSiteTest(t)
	admin := testUser(models.RoleAdmin)
	teamID := uuid.New()
	site := &models.Site{ID: uuid.New(), Name: "Shop", Owner: models.UserOwner(uuid.New())}
	moved := *site
	moved.Owner = models.TeamOwner(teamID)

	m.teams.On("TeamIDsForUser", mock.Anything, admin.ID).Return([]uuid.UUID{}, nil)
	m.sites.On("GetByID", mock.Anything, site.ID).Return(site, nil)
	m.ownership.On("TransferSite", mock.Anything, admin.Email, site.ID, models.TeamOwner(teamID)).Return(&moved, nil)

	token, auth := signIn(t, admin)
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Post("/sites/:id/transfer", handler.Transfer)

	rec := do(app, http.MethodPost, "/sites/"+site.ID.String()+"/transfer", token,
		dto.TransferRequest{OwnerType: "team", OwnerID: teamID})

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.TeamOwner(teamID), got.Owner)
	m.ownership.AssertExpectations(t)
}
