package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_EmptyEndpointReturnsNoopProviderWithoutError(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "bql-test"})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.tp)
}

func TestSetup_NoopProviderShutdownIsSafe(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "bql-test"})
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStart_ReturnsUsableContextAndEndFunc(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "bql-test"})
	require.NoError(t, err)

	ctx, end := p.Start(context.Background(), "resolve")
	require.NotNil(t, ctx)
	require.NotNil(t, end)
	assert.NotPanics(t, end)
}

func TestStart_EveryStageNameRunsWithoutPanic(t *testing.T) {
	// Exercises Start across every pipeline stage name Start's doc lists, to
	// confirm none of them panic building a span on the no-op tracer.
	p, err := Setup(context.Background(), Config{ServiceName: "bql-test"})
	require.NoError(t, err)

	for _, stage := range []string{"parse", "validate", "plan", "resolve", "traverse", "mutate", "project"} {
		_, end := p.Start(context.Background(), stage)
		end()
	}
}
