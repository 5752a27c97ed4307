package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/pkg/metrics"
)

func do(g *gin.Engine, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw.Code
}

func TestRateLimitMiddleware_AllowsWithinBurst(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	g := gin.New()
	g.GET("/", RateLimitMiddleware(10, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, do(g, "192.0.2.1:1234"))
	require.Equal(t, http.StatusOK, do(g, "192.0.2.1:1234"))
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))

	g := gin.New()
	g.GET("/", RateLimitMiddleware(0.5, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, do(g, "192.0.2.1:1234"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusTooManyRequests, rw.Code)
	require.Equal(t, "1", rw.Header().Get("Retry-After"))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))

	require.Equal(t, http.StatusOK, do(g, "198.51.100.7:4321"), "other clients have their own bucket")
}

func TestRateLimitMiddleware_KeysBySubject(t *testing.T) {
	g := gin.New()
	g.GET("/", func(c *gin.Context) {
		c.Set("claims", map[string]interface{}{"sub": c.GetHeader("X-Test-Sub")})
		c.Next()
	}, RateLimitMiddleware(0.1, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(sub, remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Test-Sub", sub)
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)
		return rw.Code
	}

	require.Equal(t, http.StatusOK, send("user-123", "192.0.2.1:1"))
	require.Equal(t, http.StatusTooManyRequests, send("user-123", "192.0.2.2:1"), "same subject from another IP shares the bucket")
	require.Equal(t, http.StatusOK, send("user-456", "192.0.2.1:1"))
}
