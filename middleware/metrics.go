package middleware

import (
	"strconv"
	"time"

	"tournament-wallet-service/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records request counts and latency by route pattern.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		metrics.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
