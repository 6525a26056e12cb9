package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsAttributesAndStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := InitWithExporter("claimhub", "test", exporter)
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "claim.try")
	span.WithAttributes(map[string]string{"task_id": "TASK-001"})
	span.SetAttribute("claim.result", "task_full")
	EndSpan(span, nil)

	_, failed := StartSpan(context.Background(), "claim.reset")
	EndSpan(failed, errors.New("disk on fire"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	require.Equal(t, "claim.try", spans[0].Name)
	require.Equal(t, codes.Ok, spans[0].Status.Code)
	require.Len(t, spans[0].Attributes, 2)
	require.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestInit_WritesFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.json")

	shutdown, err := Init("claimhub", "test", fname)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "test")
	EndSpan(span, nil)
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	s.WithAttributes(map[string]string{"k": "v"})
	s.SetAttribute("k", "v")
	s.SetStatus(nil)
	EndSpan(nil, nil)
}
