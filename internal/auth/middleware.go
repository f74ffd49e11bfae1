package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

const identityKey = "auth.identity"

// RequireAuth rejects requests without a valid bearer token, or whose
// token role is not among roles when any are given.
func (s *Service) RequireAuth(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.Authorize(BearerToken(c.GetHeader("Authorization")), roles...)
		if err != nil {
			c.AbortWithStatusJSON(StatusFor(err), gin.H{"message": Message(err)})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentUser returns the identity stored by RequireAuth.
func CurrentUser(c *gin.Context) (*Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*Identity)
	return identity, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// StatusFor maps gate errors to HTTP status codes.
func StatusFor(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Message is the client facing text for a gate error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "Missing token"
	case errors.Is(err, ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	default:
		return "Invalid token"
	}
}
