package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// intakeLimit bounds how fast one Host may post to /commands. Show-control
// scripts post in bursts at cue changes, so Burst is what matters in practice.
type intakeLimit struct {
	PerSecond float64
	Burst     int
	// Idle senders are forgotten after this long.
	Forget time.Duration
}

var defaultIntakeLimit = intakeLimit{PerSecond: 50, Burst: 100, Forget: 5 * time.Minute}

// retryAfter is the whole-second wait until one more request is allowed.
func (l intakeLimit) retryAfter() string {
	if l.PerSecond <= 0 {
		return "60"
	}
	secs := int(1/l.PerSecond + 0.999)
	return strconv.Itoa(max(secs, 1))
}

func newCommandIntakeLimiter(l intakeLimit) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(l.PerSecond),
			Burst:     l.Burst,
			ExpiresIn: l.Forget,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, host string, _ error) error {
			metrics.IntakeThrottledTotal.Inc()
			c.Response().Header().Set(echo.HeaderRetryAfter, l.retryAfter())
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many commands from " + host + ", slow down",
			})
		},
	})
}
