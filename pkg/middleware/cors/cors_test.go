package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/timetable", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/timetable", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowListedOrigin(t *testing.T) {
	r := newRouter([]string{"https://admin.example.edu/"})

	w := do(r, http.MethodGet, "https://admin.example.edu")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://admin.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestUnlistedOrigin(t *testing.T) {
	r := newRouter([]string{"https://admin.example.edu"})

	w := do(r, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodOptions, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPreflight(t *testing.T) {
	r := newRouter(nil)

	w := do(r, http.MethodOptions, "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestNoOriginAllowAll(t *testing.T) {
	w := do(newRouter(nil), http.MethodGet, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
