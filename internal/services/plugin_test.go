package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPluginService(t *testing.T) (*PluginService, pgxmock.PgxPoolIface) {
	t.Helper()
	db, mock := newMockDB(t)
	svc := NewPluginService(db, NewActivityService(db))
	svc.now = fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	return svc, mock
}

func TestPluginService_Create_DuplicateSlugForOwner(t *testing.T) {
	svc, mock := setupPluginService(t)
	actor := &models.User{ID: uuid.New(), Email: "dev@example.com"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user", actor.ID, "seo-tools").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), actor, PluginInput{
		Name: "SEO Tools", Slug: "seo-tools", Owner: models.UserOwner(actor.ID),
	})

	assert.ErrorIs(t, err, ErrDuplicateSlug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPluginService_Create_ConcurrentInsertLosesRace(t *testing.T) {
	svc, mock := setupPluginService(t)
	actor := &models.User{ID: uuid.New(), Email: "dev@example.com"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user", actor.ID, "seo-tools").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO plugins`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), actor, PluginInput{
		Name: "SEO Tools", Slug: "seo-tools", Owner: models.UserOwner(actor.ID), Version: "1.0", DownloadURL: "https://x/1.0.zip",
	})

	assert.ErrorIs(t, err, ErrDuplicateSlug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPluginService_Create_InvalidOwner(t *testing.T) {
	svc, mock := setupPluginService(t)
	actor := &models.User{ID: uuid.New(), Email: "dev@example.com"}

	_, err := svc.Create(context.Background(), actor, PluginInput{
		Name: "SEO Tools", Slug: "seo-tools", Owner: models.Owner{Type: "group", ID: uuid.New()},
	})

	assert.ErrorIs(t, err, models.ErrInvalidOwnerType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPluginService_AddVersion(t *testing.T) {
	svc, mock := setupPluginService(t)
	now := time.Now()
	latest := "1.0"
	p := models.Plugin{ID: uuid.New(), Name: "SEO Tools", Slug: "seo-tools", Owner: models.UserOwner(uuid.New()),
		Source: models.PluginSourceUpload, LatestVersion: &latest, CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM plugins WHERE id = .+ FOR UPDATE`).
		WithArgs(p.ID).
		WillReturnRows(pluginRow(pgxmock.NewRows(pluginCols), p, `[{"version":"1.0","download_url":"https://x/1.0.zip"}]`))
	newLatest := "1.1"
	mock.ExpectExec(`UPDATE plugins SET versions`).
		WithArgs(pgxmock.AnyArg(), &newLatest, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	expectActivity(mock)
	mock.ExpectCommit()

	got, err := svc.AddVersion(context.Background(), "dev@example.com", p.ID, "1.1", "https://x/1.1.zip")

	require.NoError(t, err)
	require.Len(t, got.Versions, 2)
	assert.Equal(t, "1.1", got.Versions[1].Version)
	require.NotNil(t, got.LatestVersion)
	assert.Equal(t, "1.1", *got.LatestVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPluginService_AddVersion_Exists(t *testing.T) {
	svc, mock := setupPluginService(t)
	now := time.Now()
	p := models.Plugin{ID: uuid.New(), Name: "SEO Tools", Slug: "seo-tools", Owner: models.UserOwner(uuid.New()),
		CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM plugins WHERE id = .+ FOR UPDATE`).
		WithArgs(p.ID).
		WillReturnRows(pluginRow(pgxmock.NewRows(pluginCols), p, `[{"version":"1.0","download_url":"https://x/1.0.zip"}]`))
	mock.ExpectRollback()

	_, err := svc.AddVersion(context.Background(), "dev@example.com", p.ID, "1.0", "https://x/again.zip")

	assert.ErrorIs(t, err, ErrVersionExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPluginService_RecordInstall(t *testing.T) {
	svc, mock := setupPluginService(t)
	pluginID, siteID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO plugin_installations .+ ON CONFLICT`).
		WithArgs(pluginID, siteID, "2.0", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.RecordInstall(context.Background(), pluginID, siteID, "2.0", true)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
