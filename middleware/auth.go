package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	UserKey   = "userID"
	DeviceKey = "deviceID"
)

// Identity resolves the caller's identity headers without requiring them;
// anonymous visitors carry only a device id.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(UserKey, userID)
		}
		if deviceID := c.GetHeader("X-Device-ID"); deviceID != "" {
			c.Set(DeviceKey, deviceID)
		}
		c.Next()
	}
}

// AuthMiddleware rejects requests without an authenticated user. The service
// sits behind the gateway, which validates the session and forwards identity
// headers.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserKey, userID)
		c.Next()
	}
}

// AdminMiddleware additionally requires the admin role header.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if c.GetHeader("X-User-Role") != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Set(UserKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	if val, exists := c.Get(UserKey); exists {
		return val.(string)
	}
	return ""
}

func GetDeviceID(c *gin.Context) string {
	if val, exists := c.Get(DeviceKey); exists {
		return val.(string)
	}
	return ""
}
