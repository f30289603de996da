package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/metrics"
)

func RequestMetrics(m *metrics.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}

		m.GaugeRequests.Inc()
		defer m.GaugeRequests.Dec()

		method := c.Method()
		defer func(begin time.Time) {
			m.HistRequestDuration.WithLabelValues(method).Observe(time.Since(begin).Seconds())
		}(time.Now())

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.CounterRequests.With(prometheus.Labels{
			"method": method,
			"status": strconv.Itoa(status),
		}).Inc()

		return err
	}
}
