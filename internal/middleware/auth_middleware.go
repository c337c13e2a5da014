package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/utils"
	"github.com/smarttransit/route-ledger/pkg/jwt"
)

// AdminContextKey is the gin context key holding the validated claims
const AdminContextKey = "admin"

// AdminAuth validates the Bearer token and requires the admin role
func AdminAuth(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   utils.GetRealIP(c),
		})

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Auth failed: missing authorization header")
			abort(c, http.StatusUnauthorized, "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			log.Warn("Auth failed: invalid authorization format")
			abort(c, http.StatusUnauthorized, "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				log.Warn("Auth failed: token expired")
				abort(c, http.StatusUnauthorized, "Access token has expired", "TOKEN_EXPIRED")
				return
			}
			log.WithError(err).Warn("Auth failed: invalid token")
			abort(c, http.StatusUnauthorized, "Invalid access token", "INVALID_TOKEN")
			return
		}

		if !claims.HasRole(jwt.RoleAdmin) {
			log.WithField("subject", claims.Subject).Warn("Auth failed: missing admin role")
			abort(c, http.StatusForbidden, "You don't have permission to access this resource", "INSUFFICIENT_PERMISSIONS")
			return
		}

		c.Set(AdminContextKey, claims)
		c.Next()
	}
}

// GetAdminClaims returns the claims stored by AdminAuth
func GetAdminClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(AdminContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
