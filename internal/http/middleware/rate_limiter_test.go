package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"scene-service/internal/auth"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func limiterContext(e *echo.Echo, remoteAddr string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, 2)

	// Burst of two, then the bucket is empty.
	assert.True(t, rl.Allow("ip:10.0.0.1"))
	assert.True(t, rl.Allow("ip:10.0.0.1"))
	assert.False(t, rl.Allow("ip:10.0.0.1"))

	// Buckets are independent per key.
	assert.True(t, rl.Allow("ip:10.0.0.2"))
}

func TestRateLimiter_MiddlewareLimitsByIP(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 1)
	mw := rl.Middleware()

	c, rec := limiterContext(e, "10.0.0.1:4000")
	assert.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))

	// Same address, bucket drained.
	c, rec = limiterContext(e, "10.0.0.1:4001")
	assert.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// A different address gets its own bucket.
	c, rec = limiterContext(e, "10.0.0.2:4000")
	assert.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_MiddlewareKeysAuthenticatedRequestsByUser(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 1)
	mw := rl.Middleware()

	userID := uuid.New()
	asUser := func(c echo.Context, id uuid.UUID) echo.Context {
		c.Set(auth.ContextKeyAuthType, auth.AuthTypeHub)
		c.Set(auth.ContextKeyUserID, id)
		return c
	}

	c, rec := limiterContext(e, "10.0.0.1:4000")
	assert.NoError(t, mw(okHandler)(asUser(c, userID)))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same user from a different address shares the bucket; changing IPs
	// does not reset the limit.
	c, rec = limiterContext(e, "10.0.0.9:4000")
	assert.NoError(t, mw(okHandler)(asUser(c, userID)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different user from the already-throttled address is unaffected.
	c, rec = limiterContext(e, "10.0.0.1:4002")
	assert.NoError(t, mw(okHandler)(asUser(c, uuid.New())))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_UnauthenticatedFallsBackToIP(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 1)
	mw := rl.Middleware()

	// No auth context set: both requests from one address hit one bucket.
	c, rec := limiterContext(e, "10.0.0.1:4000")
	assert.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = limiterContext(e, "10.0.0.1:4001")
	assert.NoError(t, mw(okHandler)(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
