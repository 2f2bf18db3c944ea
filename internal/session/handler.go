package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httperr "github.com/kesher-crm/kesher/internal/core/errors"
)

// RegisterRoutes registers the session endpoints. Login is the only
// unauthenticated route in the API.
func RegisterRoutes(r gin.IRouter, m *Manager) {
	r.POST("/v1/sessions", loginHandler(m))
	r.DELETE("/v1/sessions", logoutHandler(m))
}

type loginRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
}

type loginResponse struct {
	Token   string `json:"token"`
	OwnerID string `json:"owner_id"`
}

func loginHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "owner_id is required",
			})
			return
		}

		s := m.Login(req.OwnerID)
		c.JSON(http.StatusCreated, loginResponse{Token: s.Token, OwnerID: s.OwnerID})
	}
}

func logoutHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !m.Logout(strings.TrimSpace(token)) {
			c.JSON(http.StatusUnauthorized, httperr.ErrorResponse{
				ErrorType: httperr.HttpUnauthorizedError,
				Message:   "Invalid or expired session",
			})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
