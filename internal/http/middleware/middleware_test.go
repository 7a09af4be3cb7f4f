package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"ekehi_engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func init() {
	gin.SetMode(gin.TestMode)
	service.InitJWT("middleware-test-secret")
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(CtxUserID), "username": c.GetString(CtxUsername)})
	})
	return r
}

func TestJWT(t *testing.T) {
	token, err := service.GenerateJWT(42, "neo", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "bearer header", header: "Bearer " + token, want: http.StatusOK},
		{name: "query token", query: "?token=" + token, want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "no bearer prefix", header: token, want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
	}

	r := protectedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":42,"username":"neo"}`, w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", JWT(), RequireAdmin([]int64{5}), func(c *gin.Context) { c.Status(http.StatusOK) })

	userToken, err := service.GenerateJWT(42, "neo", time.Hour)
	require.NoError(t, err)
	roleToken, err := service.GenerateJWTWithRole(42, "neo", service.RoleAdmin, time.Hour)
	require.NoError(t, err)
	listedToken, err := service.GenerateJWT(5, "ops", time.Hour)
	require.NoError(t, err)
	otherRole, err := service.GenerateJWTWithRole(42, "neo", "moderator", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "regular user", token: userToken, want: http.StatusForbidden},
		{name: "admin role", token: roleToken, want: http.StatusOK},
		{name: "listed id", token: listedToken, want: http.StatusOK},
		{name: "unknown role", token: otherRole, want: http.StatusForbidden},
		{name: "no token", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"admin access required"}`, w.Body.String())
			}
		})
	}
}

func TestSimpleRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/x", SimpleRateLimit(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own window
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisLimitersFailOpenWithoutRedis(t *testing.T) {
	InitRedisRateLimiter(nil)

	r := gin.New()
	r.POST("/claim", func(c *gin.Context) { c.Set(CtxUserID, int64(1)) }, ClaimRateLimit(1, time.Minute), RedisRateLimit(1, time.Minute),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claim", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, generated, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "abc-123", entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(200), entries[1].ContextMap()["status"])
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://app.example"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
