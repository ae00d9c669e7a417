package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
)

var (
	adminKey     string
	adminKeyOnce sync.Once
)

// getAdminKey returns the configured admin key, loading it once from environment.
// Returns empty string if ADMIN_API_KEY is not set (auth disabled).
func getAdminKey() string {
	adminKeyOnce.Do(func() {
		adminKey = os.Getenv("ADMIN_API_KEY")
	})
	return adminKey
}

// extractKey pulls the presented admin key from a request. Both the
// Authorization Bearer form and the X-Admin-Key header are accepted; the
// scraper CLI sends the latter.
func extractKey(c *gin.Context) (key, errCode, errMsg string) {
	if h := c.GetHeader("X-Admin-Key"); h != "" {
		return h, "", ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "AUTH_REQUIRED", "Authorization header required"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "AUTH_INVALID_FORMAT", "Invalid authorization format. Use: Bearer <admin_key>"
	}
	return parts[1], "", ""
}

// AdminKeyAuth returns middleware that requires a valid admin key for access.
// If ADMIN_API_KEY environment variable is not set, all requests are allowed
// (backwards compatible for local dev).
func AdminKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := getAdminKey()
		if key == "" {
			c.Next()
			return
		}

		providedKey, errCode, errMsg := extractKey(c)
		if errCode != "" {
			metrics.AuthFailuresTotal.Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": errMsg,
				"code":  errCode,
			})
			return
		}

		// Constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(key)) != 1 {
			metrics.AuthFailuresTotal.Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid admin key",
				"code":  "AUTH_INVALID_KEY",
			})
			return
		}

		c.Next()
	}
}

// VerifyAdminKey is a handler that verifies if the provided admin key is valid.
// Used by clients to check if their stored key is still valid.
func VerifyAdminKey(c *gin.Context) {
	key := getAdminKey()
	if key == "" {
		c.JSON(http.StatusOK, gin.H{
			"valid":        true,
			"auth_enabled": false,
			"message":      "Authentication is not configured",
		})
		return
	}

	providedKey, errCode, errMsg := extractKey(c)
	if errCode != "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"valid": false,
			"error": errMsg,
			"code":  errCode,
		})
		return
	}

	if subtle.ConstantTimeCompare([]byte(providedKey), []byte(key)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{
			"valid": false,
			"error": "Invalid admin key",
			"code":  "AUTH_INVALID_KEY",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":        true,
		"auth_enabled": true,
	})
}

// GetAuthStatus returns whether authentication is enabled (ADMIN_API_KEY is
// set). This is a public endpoint that doesn't require authentication.
func GetAuthStatus(c *gin.Context) {
	key := getAdminKey()
	c.JSON(http.StatusOK, gin.H{
		"auth_enabled": key != "",
	})
}
