package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bql/infrastructure/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ServerAddress: ":8080",
		Environment:   "development",
		AWSRegion:     "us-west-2",
		Engine: config.EngineConfig{
			MaxHopUpper:    5,
			MaxSetBatch:    10,
			MaxDeleteBatch: 5,
			SearchPageCap:  50,
		},
		Observability: config.ObservabilityConfig{
			ServiceName: "bql-test",
		},
		Logging: config.LoggingConfig{Level: "info"},
		GraphService: config.GraphServiceConfig{
			Backend: "memory",
		},
	}
}

func TestBuild_MemoryBackendWithMetricsAndTracingDisabled(t *testing.T) {
	cfg := baseConfig()

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NotNil(t, c.Engine)
	assert.Nil(t, c.Registry)

	c.Shutdown(context.Background())
}

func TestBuild_EnableMetricsPopulatesRegistry(t *testing.T) {
	cfg := baseConfig()
	cfg.Observability.EnableMetrics = true

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, c.Registry)

	c.Shutdown(context.Background())
}

func TestBuild_NoEventBusNameMeansNoPublisher(t *testing.T) {
	cfg := baseConfig()
	cfg.GraphService.EventBusName = ""

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, c.Engine)

	c.Shutdown(context.Background())
}

func TestBuild_DynamoDBBackendWithoutTableIsRejectedByConfigValidate(t *testing.T) {
	cfg := baseConfig()
	cfg.GraphService.Backend = "dynamodb"

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestBuild_WiresDynamicConfigManagerForHotReload(t *testing.T) {
	cfg := baseConfig()

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, c.DynamicLimits)
	assert.Equal(t, cfg.Engine, c.DynamicLimits.GetEngineLimits())

	c.Shutdown(context.Background())
}

func TestShutdown_IsSafeToCallOnUnreferencedContainer(t *testing.T) {
	cfg := baseConfig()
	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotPanics(t, func() { c.Shutdown(context.Background()) })
}
