package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/middleware"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/mock"
)

func testUser(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		FullName: "Test User",
		Email:    "test@example.com",
		Role:     role,
		Status:   models.UserStatusActive,
	}
}

// signIn returns a token for user and the middleware that authenticates it.
func signIn(t *testing.T, user *models.User) (string, []drift.HandlerFunc) {
	t.Helper()
	users := new(testutil.MockUserService)
	users.On("EnsureFromClaims", mock.Anything, user.ID, user.Email, "Test User").Return(user, nil)
	token := testutil.GenerateTestToken(t, user.ID, user.Email)
	return token, []drift.HandlerFunc{
		middleware.Auth(testutil.TestJWTService()),
		middleware.LoadUser(users),
	}
}

func do(app http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
