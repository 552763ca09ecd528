package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewLogger("development", "").Slog().Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("production", "").Slog().Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("development", "warn").Slog().Enabled(ctx, slog.LevelInfo))
	assert.True(t, NewLogger("production", "debug").Slog().Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewLogger("development", "loud").Slog().Enabled(ctx, slog.LevelDebug))
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	engine := gin.New()
	engine.Use(RequestID(), LoggerMiddleware(logger))
	engine.GET("/students/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/students/S9", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/students/:id", line["route"])
	assert.Equal(t, "/students/S9", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status_code"])
	assert.Equal(t, "req-1", line["request_id"])
}

func TestRequestID_Generated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetHeader(RequestIDHeader)) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), rec.Body.String())
}
