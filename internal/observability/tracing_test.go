package observability

import (
	"context"
	"testing"

	"github.com/automoto/dynamicai/internal/logging"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("DYNAMICAI_TRACING_ENABLED", "TRUE")
	t.Setenv("DYNAMICAI_TRACING_EXPORTER", "OTLP")
	t.Setenv("DYNAMICAI_TRACING_SAMPLE_RATIO", "2")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled {
		t.Fatal("Enabled = false, want true")
	}
	if cfg.Exporter != "otlp" {
		t.Fatalf("Exporter = %q, want otlp", cfg.Exporter)
	}
	if cfg.SampleRatio != 0.01 {
		t.Fatalf("SampleRatio = %v, want the default for an out-of-range value", cfg.SampleRatio)
	}
	if cfg.ServiceName != "dynamicai-server" {
		t.Fatalf("ServiceName = %q", cfg.ServiceName)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, logging.Noop())
	if err == nil {
		t.Fatal("InitTracing accepted an unknown exporter")
	}
}
