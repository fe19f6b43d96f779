package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadready/roadready-backend/internal/middleware"
	"github.com/roadready/roadready-backend/internal/response"
)

// UserHandler handles identity endpoints.
type UserHandler struct{}

// NewUserHandler creates a new UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// GetMe godoc
// GET /api/v1/me
// Returns the internal user record resolved for the caller's identity.
func (h *UserHandler) GetMe(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}
