package api

import (
	"math"

	"github.com/labstack/echo/v4"

	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
)

// Allower is a keyed token bucket; ratelimit.Limiter implements it.
type Allower interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// ThrottleSettings sizes the per-client token bucket on a route.
type ThrottleSettings struct {
	Limiter      Allower
	Capacity     float64
	RefillPerSec float64
}

// retryAfter is how long, in whole seconds, one token takes to refill.
func (s ThrottleSettings) retryAfter() int {
	if s.RefillPerSec <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/s.RefillPerSec)))
}

// throttle answers 429 once a client, keyed by route and real IP, has
// drained its bucket.
func throttle(s ThrottleSettings) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.Limiter.Allow(c.Path()+"|"+c.RealIP(), s.Capacity, s.RefillPerSec) {
				return next(c)
			}
			return xhttp.AppErrorResponse(c,
				xhttp.TooManyRequestsError("too many requests, slow down").
					WithParam(xhttp.RetryAfterParam, s.retryAfter()))
		}
	}
}
