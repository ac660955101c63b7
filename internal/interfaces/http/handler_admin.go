package http

import (
	"net/http"

	"project_canvass/internal/usecases"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminUsecase *usecases.AdminUsecase
}

func NewAdminHandler(admin *usecases.AdminUsecase) *AdminHandler {
	return &AdminHandler{adminUsecase: admin}
}

// Profile returns the tenant admin's display profile. Sub-users see their
// parent admin's profile, not their own.
func (h *AdminHandler) Profile(c *gin.Context) {
	identity := CurrentIdentity(c)
	profile, err := h.adminUsecase.Profile(c.Request.Context(), identity)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "data": profile})
}

// UserStatus reports quota usage and activation for the caller.
func (h *AdminHandler) UserStatus(c *gin.Context) {
	identity := CurrentIdentity(c)
	status, err := h.adminUsecase.Status(c.Request.Context(), identity)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListUsers lists accounts created under the caller (for the settings page).
func (h *AdminHandler) ListUsers(c *gin.Context) {
	identity := CurrentIdentity(c)
	users, err := h.adminUsecase.ListSubUsers(c.Request.Context(), identity)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type addSubUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) AddSubUser(c *gin.Context) {
	identity := CurrentIdentity(c)

	var req addSubUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}
	if !ValidUsername(req.Username) || !ValidPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid username or password (min 6 chars)"})
		return
	}

	userID, err := h.adminUsecase.CreateSubUser(c.Request.Context(), identity, req.Username, req.Password)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"subuser_id": userID,
		"parent_id":  identity.UserID,
	})
}

type setAllocationRequest struct {
	UserID    int `json:"user_id" binding:"required"`
	Allocated int `json:"allocated"`
}

func (h *AdminHandler) SetAllocation(c *gin.Context) {
	identity := CurrentIdentity(c)

	var req setAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}
	if req.Allocated < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Allocation must be non-negative"})
		return
	}

	if err := h.adminUsecase.SetAllocation(c.Request.Context(), identity, req.UserID, req.Allocated); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Allocation updated",
	})
}
