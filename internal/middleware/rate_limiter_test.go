package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func limitedHandler(l *IPRateLimiter) echo.HandlerFunc {
	return l.Middleware()(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

func request(e *echo.Echo, h echo.HandlerFunc, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec.Code
}

func TestRateLimiter_BurstThenLimited(t *testing.T) {
	e := echo.New()
	h := limitedHandler(NewIPRateLimiter(1, 3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, request(e, h, "192.168.1.100:12345"), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, request(e, h, "192.168.1.100:12345"))
}

func TestRateLimiter_DefaultsForNonPositiveConfig(t *testing.T) {
	l := NewIPRateLimiter(0, -1)
	assert.Equal(t, defaultBurst, l.burst)
	assert.InDelta(t, float64(defaultRequestsPerSecond), float64(l.rps), 0)
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	e := echo.New()
	h := limitedHandler(NewIPRateLimiter(1, 2))

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, request(e, h, ip), "ip %s request %d", ip, i)
		}
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	l := NewIPRateLimiter(5, 10)
	clock := time.Now()
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(5 * time.Minute)
	l.Allow("new")

	assert.Equal(t, 1, l.Sweep(visitorTTL))
	assert.Equal(t, 1, l.size())
	assert.True(t, l.Allow("new"))
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For header",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1"},
			remoteAddr: "127.0.0.1:12345",
			expected:   "192.168.1.1",
		},
		{
			name:       "first X-Forwarded-For hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remoteAddr: "127.0.0.1:12345",
			expected:   "203.0.113.7",
		},
		{
			name:       "X-Real-IP header",
			headers:    map[string]string{"X-Real-IP": "192.168.1.2"},
			remoteAddr: "127.0.0.1:12345",
			expected:   "192.168.1.2",
		},
		{
			name: "X-Forwarded-For takes precedence",
			headers: map[string]string{
				"X-Forwarded-For": "192.168.1.1",
				"X-Real-IP":       "192.168.1.2",
			},
			remoteAddr: "127.0.0.1:12345",
			expected:   "192.168.1.1",
		},
		{
			name:       "Falls back to RealIP",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.3:12345",
			expected:   "192.168.1.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remoteAddr

			c := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.expected, getIP(c))
		})
	}
}

func TestRateLimiter_Concurrency(t *testing.T) {
	e := echo.New()
	h := limitedHandler(NewIPRateLimiter(1, 10))

	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[int]int{}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := request(e, h, "192.168.1.100:12345")
			mu.Lock()
			counts[code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, counts[http.StatusOK], 10)
	assert.Greater(t, counts[http.StatusTooManyRequests], 0)
	assert.Equal(t, 20, counts[http.StatusOK]+counts[http.StatusTooManyRequests])
}
