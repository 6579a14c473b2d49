package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lgdark7/timetable/pkg/config"
)

func observedRouter() (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/timetable/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/timetable/generate", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })
	r.DELETE("/timetable", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r, logs
}

func serve(r *gin.Engine, method, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestGinMiddlewareSkipsProbes(t *testing.T) {
	r, logs := observedRouter()
	serve(r, http.MethodGet, "/health")
	assert.Equal(t, 0, logs.Len())
}

func TestGinMiddlewareLevels(t *testing.T) {
	r, logs := observedRouter()
	serve(r, http.MethodGet, "/timetable/abc")
	serve(r, http.MethodPost, "/timetable/generate")
	serve(r, http.MethodDelete, "/timetable")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/timetable/:id", entries[0].ContextMap()["route"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.EqualValues(t, http.StatusInternalServerError, entries[2].ContextMap()["status"])
}

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "json"}})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
