package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// ErrInvalidToken is returned by resolvers for tokens that fail verification
var ErrInvalidToken = errors.New("invalid or expired ID token")

// IdentityResolver verifies a bearer token and returns the caller's identity
type IdentityResolver interface {
	Resolve(ctx context.Context, idToken string) (*models.Identity, error)
}

// FirebaseResolver resolves Firebase ID tokens
type FirebaseResolver struct {
	client *auth.Client
}

// NewFirebaseResolver creates a resolver backed by the Firebase auth client
func NewFirebaseResolver(client *auth.Client) *FirebaseResolver {
	return &FirebaseResolver{client: client}
}

// Resolve verifies the token and fills in the email, falling back to the user record
// when the token carries no email claim
func (r *FirebaseResolver) Resolve(ctx context.Context, idToken string) (*models.Identity, error) {
	token, err := r.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	identity := &models.Identity{UserID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}

	if identity.Email == "" {
		user, err := r.client.GetUser(ctx, token.UID)
		if err != nil {
			slog.Warn("could not load firebase user profile", "uid", token.UID, "error", err)
		} else {
			identity.Email = user.Email
			if identity.Name == "" {
				identity.Name = user.DisplayName
			}
		}
	}
	return identity, nil
}

// FirebaseAuthMiddleware creates an Echo middleware that requires a verified identity
func FirebaseAuthMiddleware(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			identity, err := resolver.Resolve(c.Request().Context(), tokenParts[1])
			if err != nil || identity == nil || identity.UserID == "" {
				slog.Debug("rejected identity token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			c.Set(identityKey, identity)

			return next(c)
		}
	}
}

// IdentityFromContext returns the identity stored by FirebaseAuthMiddleware
func IdentityFromContext(c echo.Context) (*models.Identity, bool) {
	identity, ok := c.Get(identityKey).(*models.Identity)
	return identity, ok && identity != nil && identity.UserID != ""
}
