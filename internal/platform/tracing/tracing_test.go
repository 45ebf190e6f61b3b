package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "bibliodash", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestProviderRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := NewProvider("bibliodash", sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	_, span := provider.Tracer("test").Start(context.Background(), "vw_resumen_multas")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "vw_resumen_multas", spans[0].Name())
	name, ok := spans[0].Resource().Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "bibliodash", name.AsString())
}
