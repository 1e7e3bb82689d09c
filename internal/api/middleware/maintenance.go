package middleware

import (
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	jwtutil "github.com/Prasadchowdar/100CroresClub/pkg/jwt"
)

var maintenanceModeFlag atomic.Bool

// SetMaintenanceMode flips the in-process gate. The settings row is the
// durable source; main seeds this at boot and the admin toggle updates
// both.
func SetMaintenanceMode(enabled bool) {
	maintenanceModeFlag.Store(enabled)
}

func IsMaintenanceMode() bool {
	return maintenanceModeFlag.Load()
}

// MaintenanceMode returns 503 to everyone but admins while the flag is up.
// The admin login route stays open so an admin whose token expired during
// the window can still get in to lift the flag.
func MaintenanceMode() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !maintenanceModeFlag.Load() {
			c.Next()
			return
		}

		if strings.HasSuffix(c.FullPath(), "/admin/login") {
			c.Next()
			return
		}

		if claims, ok := GetClaims(c); ok && strings.EqualFold(claims.Role, string(model.UserRoleAdmin)) {
			c.Next()
			return
		}
		if claims, ok := resolveClaimsFromRequest(c); ok && strings.EqualFold(claims.Role, string(model.UserRoleAdmin)) {
			c.Set(claimsContextKey, claims)
			c.Next()
			return
		}

		response.Fail(c, 503, response.ErrSystemMaintenance, "system maintenance")
		c.Abort()
	}
}

func resolveClaimsFromRequest(c *gin.Context) (*Claims, bool) {
	if c == nil {
		return nil, false
	}

	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return nil, false
	}

	publicKey, err := loadRSAPublicKey()
	if err != nil {
		return nil, false
	}

	claims, err := jwtutil.ParseAccessToken(tokenString, publicKey)
	if err != nil || claims == nil {
		return nil, false
	}

	return claims, true
}
