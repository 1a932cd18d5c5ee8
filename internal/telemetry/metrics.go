package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	RetrievalRequests   metric.Int64Counter
	ContextChunks       metric.Int64Histogram
	FallbackActivations metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
	SessionSlides       metric.Int64Counter
	SessionSlideErrors  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("chatbot-retrieval-core")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	retrievalRequests, err := meter.Int64Counter(
		"retrieval.requests.total",
		metric.WithDescription("Total retrieval context requests"),
	)
	if err != nil {
		return nil, err
	}

	contextChunks, err := meter.Int64Histogram(
		"retrieval.context.chunks",
		metric.WithDescription("Chunks returned per retrieval call"),
	)
	if err != nil {
		return nil, err
	}

	fallbackActivations, err := meter.Int64Counter(
		"store.fallback.activations",
		metric.WithDescription("Primary-store failures recovered via the fallback registry"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	sessionSlides, err := meter.Int64Counter(
		"session.slides.total",
		metric.WithDescription("Sliding-expiration extensions applied"),
	)
	if err != nil {
		return nil, err
	}

	sessionSlideErrors, err := meter.Int64Counter(
		"session.slide.errors",
		metric.WithDescription("Sliding-expiration extensions that could not be persisted"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		RetrievalRequests:   retrievalRequests,
		ContextChunks:       contextChunks,
		FallbackActivations: fallbackActivations,
		CircuitBreakerState: circuitBreakerState,
		SessionSlides:       sessionSlides,
		SessionSlideErrors:  sessionSlideErrors,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordRetrieval records one context retrieval and its result size
func (m *Metrics) RecordRetrieval(chunks int, degraded bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Bool("retrieval.degraded", degraded),
	}

	m.RetrievalRequests.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.ContextChunks.Record(context.Background(), int64(chunks), metric.WithAttributes(attrs...))
}

// RecordFallback records a primary-store failure recovered via fallback
func (m *Metrics) RecordFallback(operation, domain string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("store.operation", operation),
		attribute.String("store.domain", domain),
	}

	m.FallbackActivations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordSessionSlide records one sliding-expiration extension attempt
func (m *Metrics) RecordSessionSlide(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.SessionSlides.Add(context.Background(), 1)
		return
	}
	m.SessionSlideErrors.Add(context.Background(), 1)
}
