package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{Traces: true})
	require.Error(t, err)
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "escrowd"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.NotNil(t, Tracer())
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = secret ,broken, =skip,tenant=escrow")
	require.Equal(t, map[string]string{"api-key": "secret", "tenant": "escrow"}, got)
}

func TestSamplerBounds(t *testing.T) {
	require.Contains(t, Config{}.sampler().Description(), "AlwaysOn")
	require.Contains(t, Config{SampleRatio: 0.25}.sampler().Description(), "TraceIDRatioBased")
}
