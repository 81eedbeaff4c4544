// auth.go implements the admin login endpoint. Admin accounts are provisioned
// out of band (see cmd/hash); there is no self-service registration.
package admin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xteam-pro/audit-platform/internal/auth"
	"github.com/xteam-pro/audit-platform/internal/db/repositories"
)

// AuthHandlers handles authentication-related endpoints
type AuthHandlers struct {
	users  *repositories.AdminUserRepository
	tokens *auth.TokenManager
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(users *repositories.AdminUserRepository, tokens *auth.TokenManager) *AuthHandlers {
	return &AuthHandlers{users: users, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies admin credentials and issues a session token. Unknown
// usernames and wrong passwords produce the same response so the endpoint
// cannot be used to enumerate accounts.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		slog.Error("failed to load admin user", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		slog.Warn("failed admin login attempt", "username", req.Username, "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		slog.Error("failed to generate session token", "username", user.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	slog.Info("admin logged in", "username", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"username":   user.Username,
	})
}
