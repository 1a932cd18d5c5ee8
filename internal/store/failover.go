package store

import (
	"context"
	"time"

	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/telemetry"

	"github.com/sony/gobreaker"
)

// Failover is the single "attempt primary, fall back on failure" shape
// shared by every fallback-eligible operation. The primary call runs under
// a bounded deadline inside a circuit breaker; any error, including a
// timeout or an open breaker, is absorbed, counted, and answered by the
// fallback closure instead. Callers never observe degraded mode as a
// failure.
type Failover struct {
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics *telemetry.Metrics
}

func NewFailover(name string, timeout time.Duration, metrics *telemetry.Metrics) *Failover {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Primary store circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	return &Failover{
		breaker: breaker,
		timeout: timeout,
		metrics: metrics,
	}
}

// Attempt runs primary under the breaker and deadline; on any error it runs
// fallback and reports success. The operation and domain labels feed logs
// and metrics only.
func (f *Failover) Attempt(ctx context.Context, operation, domain string, primary func(ctx context.Context) error, fallback func()) {
	_, err := f.breaker.Execute(func() (interface{}, error) {
		callCtx := ctx
		if f.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}
		return nil, primary(callCtx)
	})
	if err == nil {
		return
	}

	logger.Warn("Primary store unavailable, serving from fallback registry",
		"operation", operation, "domain", domain, "error", err.Error())
	f.metrics.RecordFallback(operation, domain)
	fallback()
}
