package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPObserver receives request metrics.
type HTTPObserver interface {
	HTTPStarted()
	HTTPFinished(route, method string, status int, seconds float64)
}

// Metrics records in-flight count, status and latency per route template.
// Route templates keep label cardinality low; unmatched paths share one label.
func Metrics(obs HTTPObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			obs.HTTPStarted()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.HTTPFinished(route, c.Request().Method, c.Response().Status, time.Since(start).Seconds())
			return nil
		}
	}
}
