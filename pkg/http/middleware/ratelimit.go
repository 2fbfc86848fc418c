package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether one more request for key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests over the per-client budget with 429. Clients
// are keyed by their real IP.
func RateLimit(a Allower) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
