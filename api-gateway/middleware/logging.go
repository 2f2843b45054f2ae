package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/batch-allocation/pkg/logger"
)

var (
	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Requests handled by the gateway",
		},
		[]string{"method", "status_code"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Gateway request latency including the upstream call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(gatewayRequests, gatewayDuration)
}

// StructuredLoggingMiddleware logs each request with its trace and request id
// and records the gateway request metrics
func StructuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// requestid middleware runs first and stores the id in locals
		requestID, _ := c.Locals("requestid").(string)
		ctx := logger.ContextWithRequestID(c.UserContext(), requestID)
		c.SetUserContext(ctx)

		err := c.Next()

		duration := time.Since(start)
		statusCode := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				statusCode = fe.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		gatewayRequests.WithLabelValues(c.Method(), strconv.Itoa(statusCode)).Inc()
		gatewayDuration.WithLabelValues(c.Method()).Observe(duration.Seconds())

		logEvent := logger.Info(ctx)
		if statusCode >= 500 {
			logEvent = logger.Error(ctx)
		} else if statusCode >= 400 {
			logEvent = logger.Warn(ctx)
		}

		logEvent.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Int("status", statusCode).
			Dur("duration", duration).
			Int("response_size", len(c.Response().Body())).
			Err(err).
			Msg("Gateway request completed")

		return err
	}
}
