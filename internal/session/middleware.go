package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httperr "github.com/kesher-crm/kesher/internal/core/errors"
)

// ownerKey is the gin context key the middleware stores the resolved
// owner ID under.
const ownerKey = "session_owner_id"

// Middleware returns a gin handler that resolves "Authorization: Bearer
// <token>" to a live session and scopes the request to its owner.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
				ErrorType: httperr.HttpUnauthorizedError,
				Message:   "Missing bearer token",
			})
			return
		}

		s, found := m.Lookup(strings.TrimSpace(token))
		if !found || !s.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
				ErrorType: httperr.HttpUnauthorizedError,
				Message:   "Invalid or expired session",
			})
			return
		}

		c.Set(ownerKey, s.OwnerID)
		c.Next()
	}
}

// OwnerID returns the owner the middleware resolved for this request.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
