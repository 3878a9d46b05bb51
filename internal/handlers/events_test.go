package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/sse"
	"github.com/dimitrije/pluginhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestEventsHandler_StreamsUnreadCounts(t *testing.T) {
	messages := new(testutil.MockMessageService)
	notifications := new(testutil.MockNotificationService)
	teams := new(testutil.MockTeamService)
	hub := sse.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	handler := NewEventsHandler(hub, messages, notifications, teams, time.Hour)
	user := testUser(models.RoleUser)

	teams.On("TeamIDsForUser", mock.Anything, user.ID).Return([]uuid.UUID{}, nil)
	messages.On("UnreadCount", mock.Anything, mock.Anything).Return(2, nil)
	notifications.On("UnreadCount", mock.Anything, user.ID).Return(5, nil)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Get("/events", handler.Stream)

	reqCtx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(reqCtx)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "unread")
	assert.Contains(t, body, `"messages":2`)
	assert.Contains(t, body, `"notifications":5`)
}

func TestEventsHandler_CountFailure(t *testing.T) {
	messages := new(testutil.MockMessageService)
	notifications := new(testutil.MockNotificationService)
	teams := new(testutil.MockTeamService)
	handler := NewEventsHandler(sse.NewHub(), messages, notifications, teams, time.Hour)
	user := testUser(models.RoleUser)

	teams.On("TeamIDsForUser", mock.Anything, user.ID).Return(nil, assert.AnError)

	token, auth := signIn(t, user)
	app := drift.New()
	for _, mw := range auth {
		app.Use(mw)
	}
	app.Get("/events", handler.Stream)

	rec := do(app, http.MethodGet, "/events", token, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	app := drift.New()
	app.Get("/health", Health)

	rec := do(app, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
