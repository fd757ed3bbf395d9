package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiterIgnoresForwardedHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	_ = router.SetTrustedProxies(nil)

	rl := NewRateLimiter(1, 1)
	router.GET("/", rl.LimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Same source, each request claiming a different forwarded chain:
	// all must land in the same bucket, so the second is limited.
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "request %d", i+1)
	}
}

func TestLimiterAllowsDistinctClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	assert.True(t, rl.getVisitor("198.51.100.1").Allow())
	assert.True(t, rl.getVisitor("198.51.100.2").Allow())
	assert.False(t, rl.getVisitor("198.51.100.1").Allow())
}
