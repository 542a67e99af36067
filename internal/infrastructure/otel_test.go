package infrastructure

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"stflow/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOTelConfig(tracing, metrics bool, exporter string) *OTelConfig {
	return &OTelConfig{
		ServiceName:    "stflow-test",
		ServiceVersion: "v0.0.0",
		Environment:    "test",
		TraceExporter:  exporter,
		EnableMetrics:  metrics,
		EnableTracing:  tracing,
		SampleRatio:    1.0,
		TraceWriter:    io.Discard,
	}
}

func shutdown(t *testing.T, p *OTelProviders) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.Shutdown(ctx))
}

func TestNewOTelConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	cfg := NewOTelConfig(config.TelemetryConfig{
		ServiceName:    "stflow",
		MetricsEnabled: true,
		TracingEnabled: false,
		TraceExporter:  "stdout",
	}, "1.2.3")

	assert.Equal(t, "stflow", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)

	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, "production", NewOTelConfig(config.TelemetryConfig{}, "").Environment)
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr bool
	}{
		{"everything", testOTelConfig(true, true, "stdout"), false},
		{"tracing without exporter", testOTelConfig(true, true, "none"), false},
		{"disabled tracing", testOTelConfig(false, true, "none"), false},
		{"disabled metrics", testOTelConfig(true, false, "stdout"), false},
		{"unknown exporter", testOTelConfig(true, false, "otlp"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.config.EnableTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.config.EnableMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.config.EnableMetrics, providers.PrometheusHTTP != nil)
			assert.NotNil(t, providers.MeterOrGlobal())
			assert.NotNil(t, providers.TracerOrGlobal())

			shutdown(t, providers)
		})
	}
}

func TestOTelInitialization_Twice(t *testing.T) {
	// each initialization owns a registry, so instruments never collide
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(testOTelConfig(false, true, "none"), quietLogger())
		require.NoError(t, err)
		_, err = CreateHTTPMetrics(providers.Meter)
		require.NoError(t, err)
		shutdown(t, providers)
	}
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(true, false, "none"), quietLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))

	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, &buf)
	require.NoError(t, err)
	logger.InfoContext(ctx, "inside span")
	assert.Contains(t, buf.String(), `"trace_id":"`+traceID+`"`)
}

func TestTracePropagation(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(true, false, "none"), quietLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	tracer := otel.Tracer("propagation-test")
	ctx, parentSpan := tracer.Start(context.Background(), "parent-operation")
	defer parentSpan.End()
	_, childSpan := tracer.Start(ctx, "child-operation")
	defer childSpan.End()

	assert.Equal(t, parentSpan.SpanContext().TraceID(), childSpan.SpanContext().TraceID())
	assert.NotEqual(t, parentSpan.SpanContext().SpanID(), childSpan.SpanContext().SpanID())
}

func TestSpanOperations(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(true, false, "none"), quietLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "batch.fetched", map[string]interface{}{
			"batch":    3,
			"samples":  int64(32),
			"loss":     0.25,
			"ok":       true,
			"mode":     "periodical",
			"duration": time.Second,
		})
		RecordError(ctx, io.ErrUnexpectedEOF)
	})

	// no-ops without a recording span
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "ignored", nil)
		RecordError(context.Background(), io.EOF)
	})
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(false, true, "none"), quietLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	metrics, err := CreateHTTPMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "GET")))
	metrics.RecordSystemError(ctx, "malformed_input", "dataset")

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), "system_errors_total")
}

func TestRecordSystemError_NilMetrics(t *testing.T) {
	var m *HTTPMetrics
	assert.NotPanics(t, func() { m.RecordSystemError(context.Background(), "x", "y") })
}

func TestRuntimeCollector(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(false, true, "none"), quietLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	collector, err := NewRuntimeCollector(providers.Meter, time.Millisecond)
	require.NoError(t, err)

	stats := collector.Snapshot(context.Background())
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.CPUCount)
	assert.Contains(t, stats.FormatStats(), "heap_mb")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Start(ctx)
		close(done)
	}()
	collector.Stop()
	collector.Stop()
	<-done
	cancel()
}
