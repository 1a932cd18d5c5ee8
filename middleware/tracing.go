package middleware

import (
	"time"

	"chatbot-retrieval-core/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware provides OpenTelemetry tracing for Gin
func TracingMiddleware() gin.HandlerFunc {
	return otelgin.Middleware("chatbot-retrieval-core")
}

// EnrichTrace adds request and identity attributes to the active span.
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		if userID := GetUserID(c); userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}
		span.SetAttributes(
			attribute.String("http.client_ip", c.ClientIP()),
			attribute.String("request.id", GetRequestID(c)),
		)

		c.Next()

		span.SetAttributes(
			attribute.Int("http.response.status_code", c.Writer.Status()),
		)
	}
}

// MetricsMiddleware records request count and latency.
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusStr := "success"
		if c.Writer.Status() >= 400 {
			statusStr = "error"
		}

		metrics.RecordRequest(
			c.Request.Method,
			c.Request.URL.Path,
			statusStr,
			duration,
		)
	}
}
