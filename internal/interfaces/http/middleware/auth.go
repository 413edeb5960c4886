package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/interfaces/http/permissions"
)

const (
	callerKey = "caller"
	roleKey   = "role"
)

// Auth makes sure the caller holds a token granting the role required by
// the requested route. Whitelisted routes are let through untouched.
func Auth(secret []byte) gin.HandlerFunc {
	whitelist := permissions.Whitelist()
	permissionMap := permissions.AllPermissionsByRoute()

	return func(c *gin.Context) {
		path := c.FullPath()
		// Unmatched routes are handled by gin.
		if path == "" {
			c.Next()
			return
		}

		route := permissions.Route(c.Request.Method, path)
		if _, ok := whitelist[route]; ok {
			c.Next()
			return
		}

		required, ok := permissionMap[route]
		if !ok {
			log.Warnf("%s: unknown permissions required for route", route)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "unknown permissions required for route",
			})
			return
		}

		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header required, expected: Bearer <token>",
			})
			return
		}

		claims, err := permissions.ParseToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		if !permissions.IsAllowed(claims.Role, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "role " + claims.Role + " not allowed",
			})
			return
		}

		c.Set(callerKey, claims.Address)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// Caller returns the address of the authenticated caller, empty for
// whitelisted routes.
func Caller(c *gin.Context) string {
	return c.GetString(callerKey)
}
