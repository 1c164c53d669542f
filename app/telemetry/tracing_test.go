package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(Config{Enabled: false})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Expected no-op shutdown, got %v", err)
	}
}

func TestInitExportsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	shutdown, err := Init(Config{Enabled: true, Version: "test", Output: &buf})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "ingest-articles")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "ingest-articles") {
		t.Errorf("Expected span name in output, got %q", output)
	}
	if !strings.Contains(output, ServiceName) {
		t.Errorf("Expected service name in output, got %q", output)
	}
}
