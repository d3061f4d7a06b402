package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := NewHealthHandler("civic-rag", "1.2.3", map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		"db":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		"cache": nil,
	})
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "civic-rag", resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, map[string]string{"redis": "up", "db": "down", "cache": "disabled"}, resp.Checks)
}

func TestHealthCheck_AllUp(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHealthHandler("civic-rag", "dev", map[string]Pinger{
		"db": PingFunc(func(context.Context) error { return nil }),
	})
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}
