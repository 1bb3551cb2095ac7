package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func doRequest(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityOptional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c), "device": GetDeviceID(c)})
	})

	w := doRequest(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":""`)

	w = doRequest(r, map[string]string{"X-User-ID": "user-1", "X-Device-ID": "device-1"})
	assert.Contains(t, w.Body.String(), `"user":"user-1"`)
	assert.Contains(t, w.Body.String(), `"device":"device-1"`)
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, map[string]string{"X-User-ID": "user-1"}).Code)
}

func TestAdminMiddlewareRequiresRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, nil).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, map[string]string{"X-User-ID": "user-1"}).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, map[string]string{"X-User-ID": "user-1", "X-User-Role": "admin"}).Code)
}
