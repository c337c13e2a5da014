package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/utils"
	"github.com/smarttransit/route-ledger/pkg/jwt"
)

// AdminLoginRequest is the body of POST /api/adminLogin
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLoginResponse carries the issued admin token
type AdminLoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	Message   string `json:"message"`
}

// AdminAuthHandler exchanges the admin password for a bearer token
type AdminAuthHandler struct {
	passwordHash string
	jwtService   *jwt.Service
	logger       *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler. An empty
// passwordHash disables admin login.
func NewAdminAuthHandler(passwordHash string, jwtService *jwt.Service, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		passwordHash: passwordHash,
		jwtService:   jwtService,
		logger:       logger,
	}
}

// Login handles POST /api/adminLogin
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	log := h.logger.WithField("ip", utils.GetRealIP(c))
	if h.passwordHash == "" || h.jwtService == nil {
		log.Warn("Admin login attempted but admin access is not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Admin access is not configured"})
		return
	}

	if !utils.CheckPassword(h.passwordHash, strings.TrimSpace(req.Password)) {
		log.Warn("Admin login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid password"})
		return
	}

	token, err := h.jwtService.GenerateAccessToken("admin", []string{jwt.RoleAdmin})
	if err != nil {
		log.WithError(err).Error("Failed to issue admin token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
		return
	}

	log.Info("Admin login successful")
	c.JSON(http.StatusOK, AdminLoginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: int64(h.jwtService.Expiry().Seconds()),
		Message:   "Admin login successful",
	})
}
