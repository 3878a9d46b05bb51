package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	templateCols = []string{"id", "name", "description", "team_id", "plugins", "created_by", "created_at"}
	projectCols  = []string{"id", "title", "description", "team_id", "site_id", "template_id", "status", "priority",
		"plugins", "assigned_members", "timeline_events", "notes", "created_by", "created_at", "updated_at"}
)

// projectPluginsArg matches the encoded plugin list of a new project.
type projectPluginsArg []models.ProjectPlugin

func (want projectPluginsArg) Match(actual any) bool {
	raw, ok := actual.([]byte)
	if !ok {
		return false
	}
	var got []models.ProjectPlugin
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return assert.ObjectsAreEqual([]models.ProjectPlugin(want), got)
}

func TestProjectService_Create_FromTemplate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProjectService(db, NewActivityService(db))
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	actor := &models.User{ID: uuid.New(), Email: "lead@example.com"}
	teamID, templateID, pluginID := uuid.New(), uuid.New(), uuid.New()
	projectID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM project_templates WHERE id`).
		WithArgs(templateID).
		WillReturnRows(pgxmock.NewRows(templateCols).AddRow(templateID, "Shop", "", &teamID,
			[]byte(`[{"plugin_id":"`+pluginID.String()+`","version":"3.0"}]`), "lead@example.com", now))
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("Launch", "", teamID, (*uuid.UUID)(nil), &templateID, models.ProjectStatusPlanning, models.PriorityNormal,
			projectPluginsArg{{PluginID: pluginID, Version: "3.0"}}, pgxmock.AnyArg(), pgxmock.AnyArg(), "", actor.Email).
		WillReturnRows(pgxmock.NewRows(projectCols).AddRow(projectID, "Launch", "", teamID, nil, &templateID,
			models.ProjectStatusPlanning, models.PriorityNormal,
			[]byte(`[{"plugin_id":"`+pluginID.String()+`","version":"3.0","installed":false}]`),
			[]byte(`[{"user_id":"`+actor.ID.String()+`","role_on_project":"Project Lead"}]`),
			[]byte(`[]`), "", actor.Email, now, now))
	expectActivity(mock)
	mock.ExpectCommit()

	project, err := svc.Create(context.Background(), actor, ProjectInput{Title: "Launch", TeamID: teamID, TemplateID: &templateID})

	require.NoError(t, err)
	require.Len(t, project.Plugins, 1)
	assert.False(t, project.Plugins[0].Installed)
	require.Len(t, project.AssignedMembers, 1)
	assert.Equal(t, actor.ID, project.AssignedMembers[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Create_UnknownTemplate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProjectService(db, NewActivityService(db))
	templateID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM project_templates WHERE id`).
		WithArgs(templateID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), &models.User{Email: "lead@example.com"},
		ProjectInput{Title: "Launch", TeamID: uuid.New(), TemplateID: &templateID})

	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationService_MarkRead_OtherRecipient(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNotificationService(db)
	recipient, id := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id`).
		WithArgs(id, recipient).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.MarkRead(context.Background(), recipient, id)

	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationService_UnreadCount(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNotificationService(db)
	recipient := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(recipient).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	n, err := svc.UnreadCount(context.Background(), recipient)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
