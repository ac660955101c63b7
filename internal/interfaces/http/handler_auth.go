package http

import (
	"net/http"
	"time"

	"project_canvass/internal/infrastructure"
	"project_canvass/internal/usecases"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUsecase   *usecases.AuthUsecase
	loginLimiter  *infrastructure.LoginRateLimiter
	inactivityMin int
}

func NewAuthHandler(auth *usecases.AuthUsecase, loginLimiter *infrastructure.LoginRateLimiter, inactivityMin int) *AuthHandler {
	return &AuthHandler{
		authUsecase:   auth,
		loginLimiter:  loginLimiter,
		inactivityMin: inactivityMin,
	}
}

// Login accepts form-encoded credentials and returns a bearer token plus
// the account's quota counters and tenant profile.
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.loginLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Too many login attempts, try again later"})
		return
	}

	username := SanitizeString(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username and password required"})
		return
	}

	result, err := h.authUsecase.Login(c.Request.Context(), username, password)
	if err != nil {
		abortWith(c, err)
		return
	}

	profile := gin.H{"status": false}
	if result.Profile != nil {
		profile = gin.H{
			"status":   true,
			"UserID":   result.Profile.UserID,
			"FullName": result.Profile.FullName,
			"Symbol":   result.Profile.Symbol,
			"SerialNo": result.Profile.SerialNo,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":       result.Token,
		"token_type":         "bearer",
		"user_id":            result.Identity.UserID,
		"username":           result.Identity.Username,
		"role":               result.Identity.Role,
		"main_admin_id":      result.Identity.MainAdminID,
		"section_no":         result.Identity.SectionNo,
		"allocated":          result.Allocated,
		"users":              result.Users,
		"inactivity_timeout": result.InactivityMinutes,
		"profile":            profile,
	})
}

// Me returns the identity resolved from the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	identity := CurrentIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":       identity.UserID,
		"username":      identity.Username,
		"role":          identity.Role,
		"main_admin_id": identity.MainAdminID,
		"section_no":    identity.SectionNo,
		"session_id":    identity.SessionID,
	})
}

// UpdateActivity pushes the inactivity deadline forward.
func (h *AuthHandler) UpdateActivity(c *gin.Context) {
	identity := CurrentIdentity(c)
	if err := h.authUsecase.Touch(c.Request.Context(), identity); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Activity updated",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	identity := CurrentIdentity(c)
	if err := h.authUsecase.Logout(c.Request.Context(), identity); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Logged out successfully"})
}

// RefreshSession extends the session window (called periodically by the frontend).
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	identity := CurrentIdentity(c)
	expiresAt, err := h.authUsecase.Refresh(c.Request.Context(), identity)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    "Session refreshed",
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// SessionStatus reports session health without failing the request.
func (h *AuthHandler) SessionStatus(c *gin.Context) {
	identity := CurrentIdentity(c)
	status, err := h.authUsecase.Status(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
