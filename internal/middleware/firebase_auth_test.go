package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]*models.Identity

func (r staticResolver) Resolve(_ context.Context, token string) (*models.Identity, error) {
	identity, ok := r[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return identity, nil
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	resolver := staticResolver{
		"good":  {UserID: "alice", Email: "alice@example.com"},
		"blank": {},
	}
	mw := FirebaseAuthMiddleware(resolver)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"too many parts", "Bearer good extra", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"identity without uid", "Bearer blank", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen *models.Identity
			err := mw(func(c echo.Context) error {
				identity, ok := IdentityFromContext(c)
				require.True(t, ok)
				seen = identity
				return c.NoContent(http.StatusOK)
			})(c)

			if tt.status == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, "alice", seen.UserID)
				assert.Equal(t, "alice@example.com", seen.Email)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.status, he.Code)
			assert.Nil(t, seen)
		})
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), httptest.NewRecorder())
	_, ok := IdentityFromContext(c)
	assert.False(t, ok)

	c.Set(identityKey, &models.Identity{})
	_, ok = IdentityFromContext(c)
	assert.False(t, ok)
}
