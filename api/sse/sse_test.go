package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Saadmadni84/Learning-Platform--sub002/cache"
	"github.com/Saadmadni84/Learning-Platform--sub002/config"
	mw "github.com/Saadmadni84/Learning-Platform--sub002/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSSESetup(t *testing.T) (*gin.Engine, cache.Cache, config.SecurityConfig) {
	t.Helper()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour}
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err)
	ps, err := cache.NewPubSub(cache.CacheConfig{})
	require.NoError(t, err)

	h := NewHandler(ps, c, sec, zap.NewNop())
	r := gin.New()
	r.GET("/sse", h.ServeSSE)
	return r, c, sec
}

func TestServeSSERejectsMissingToken(t *testing.T) {
	r, _, _ := newSSESetup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeSSERejectsBadToken(t *testing.T) {
	r, _, _ := newSSESetup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeSSERejectsExpiredSession(t *testing.T) {
	r, _, sec := newSSESetup(t)

	// Valid JWT but no cached session key.
	token, err := mw.GenerateToken(7, "student", sec.JWTSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeSSEStreamsConnectedEvent(t *testing.T) {
	r, c, sec := newSSESetup(t)

	token, err := mw.GenerateToken(7, "student", sec.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "session:"+token, "7", time.Hour))

	// Cancel the request shortly after connect so the stream loop exits.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/sse?token="+token, nil).WithContext(ctx)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: connected")
}
