package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeEngine(handlers ...gin.HandlerFunc) (*gin.Engine, *struct{ session, requestID string }) {
	gin.SetMode(gin.TestMode)
	captured := &struct{ session, requestID string }{}
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/probe", func(c *gin.Context) {
		captured.session = GetSessionID(c)
		captured.requestID = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})
	return engine, captured
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	engine, captured := probeEngine(RequestID())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.NotEmpty(t, captured.requestID)
	assert.Equal(t, captured.requestID, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_PropagatesExisting(t *testing.T) {
	engine, captured := probeEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", captured.requestID)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestCartSession_UsesHeader(t *testing.T) {
	engine, captured := probeEngine(CartSession())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(SessionHeader, "sess-abc")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "sess-abc", captured.session)
	assert.Equal(t, "sess-abc", rec.Header().Get(SessionHeader))
}

func TestCartSession_IssuesNewWithCookie(t *testing.T) {
	engine, captured := probeEngine(CartSession())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	require.NotEmpty(t, captured.session)
	assert.Equal(t, captured.session, rec.Header().Get(SessionHeader))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, captured.session, cookies[0].Value)
}

func TestCartSession_PrefersHeaderOverCookie(t *testing.T) {
	engine, captured := probeEngine(CartSession())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(SessionHeader, "from-header")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "from-header", captured.session)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://shop.example.com"}
	engine, _ := probeEngine(CORSWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_RejectsUnknownOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://shop.example.com"}
	engine, _ := probeEngine(CORSWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"*"}
	engine, _ := probeEngine(CORSWithConfig(cfg))

	req := httptest.NewRequest(http.MethodOptions, "/probe", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
