package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(userID, email, "Test User")
	require.NoError(t, err)
	return token
}

type stubLoader struct {
	user *models.User
	err  error
}

func (s stubLoader) EnsureFromClaims(_ context.Context, id uuid.UUID, email, _ string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user != nil {
		return s.user, nil
	}
	return &models.User{ID: id, Email: email, Role: models.RoleUser, Status: models.UserStatusActive}, nil
}

func okHandler(c *drift.Context) {
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func serve(app http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	jwtSvc := newTestJWTService()
	app := drift.New()

	app.Use(Auth(jwtSvc))
	app.Get("/protected", okHandler)

	rec := serve(app, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	jwtSvc := newTestJWTService()
	app := drift.New()

	app.Use(Auth(jwtSvc))
	app.Get("/protected", okHandler)

	for _, header := range []string{"Token some-token", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), "invalid authorization header format")
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	app := drift.New()

	app.Use(Auth(jwtSvc))
	app.Get("/protected", okHandler)

	rec := serve(app, "not-a-jwt")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_ExpiredToken(t *testing.T) {
	jwtSvc := services.NewJWTService("test-secret-key", -time.Minute)
	app := drift.New()

	app.Use(Auth(jwtSvc))
	app.Get("/protected", okHandler)

	rec := serve(app, generateTestToken(t, jwtSvc, uuid.New(), "test@example.com"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_WrongSecret(t *testing.T) {
	other := services.NewJWTService("other-secret", 15*time.Minute)
	app := drift.New()

	app.Use(Auth(newTestJWTService()))
	app.Get("/protected", okHandler)

	rec := serve(app, generateTestToken(t, other, uuid.New(), "test@example.com"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID := uuid.New()
	app := drift.New()

	var gotID uuid.UUID
	var gotEmail, gotName string
	app.Use(Auth(jwtSvc))
	app.Get("/protected", func(c *drift.Context) {
		gotID = GetUserID(c)
		gotEmail = GetUserEmail(c)
		gotName = GetUserName(c)
		okHandler(c)
	})

	rec := serve(app, generateTestToken(t, jwtSvc, userID, "test@example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "test@example.com", gotEmail)
	assert.Equal(t, "Test User", gotName)
}

func TestGetUserID_NotSet(t *testing.T) {
	app := drift.New()

	var gotID uuid.UUID
	var gotUser *models.User
	app.Get("/protected", func(c *drift.Context) {
		gotID = GetUserID(c)
		gotUser = CurrentUser(c)
		okHandler(c)
	})

	serve(app, "")

	assert.Equal(t, uuid.Nil, gotID)
	assert.Nil(t, gotUser)
}

func TestLoadUser_StoresUser(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID := uuid.New()
	app := drift.New()

	var got *models.User
	app.Use(Auth(jwtSvc))
	app.Use(LoadUser(stubLoader{}))
	app.Get("/protected", func(c *drift.Context) {
		got = CurrentUser(c)
		okHandler(c)
	})

	rec := serve(app, generateTestToken(t, jwtSvc, userID, "test@example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, userID, got.ID)
}

func TestLoadUser_InactiveForbidden(t *testing.T) {
	jwtSvc := newTestJWTService()
	app := drift.New()

	app.Use(Auth(jwtSvc))
	app.Use(LoadUser(stubLoader{user: &models.User{Status: models.UserStatusInactive}}))
	app.Get("/protected", okHandler)

	rec := serve(app, generateTestToken(t, jwtSvc, uuid.New(), "test@example.com"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account is inactive")
}

func TestLoadUser_StoreError(t *testing.T) {
	jwtSvc := newTestJWTService()
	app := drift.New()

	app.Use(Auth(jwtSvc))
	app.Use(LoadUser(stubLoader{err: errors.New("db down")}))
	app.Get("/protected", okHandler)

	rec := serve(app, generateTestToken(t, jwtSvc, uuid.New(), "test@example.com"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	jwtSvc := newTestJWTService()

	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin passes", models.RoleAdmin, http.StatusOK},
		{"user rejected", models.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := drift.New()
			app.Use(Auth(jwtSvc))
			app.Use(LoadUser(stubLoader{user: &models.User{Role: tt.role, Status: models.UserStatusActive}}))
			app.Use(RequireAdmin())
			app.Get("/protected", okHandler)

			rec := serve(app, generateTestToken(t, jwtSvc, uuid.New(), "test@example.com"))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	app := drift.New()

	app.Use(RequestLogger(log))
	app.Get("/protected", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"path":"/protected"`)
}

func TestRequestLogger_ReportsError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	app := drift.New()

	app.Use(RequestLogger(log))
	app.Get("/protected", func(c *drift.Context) {
		SetError(c, errors.New("db down"))
		c.InternalServerError("failed")
	})

	rec := serve(app, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "db down")
}
