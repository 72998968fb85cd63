// Package container wires Config, a zap logger, a GraphService backend
// (optionally circuit-broken), an EventBridge mutation publisher, tracing,
// and the BQL engine into one struct both cmd/api and cmd/lambda build at
// startup. Grounded on the teacher's internal/di container — a hand-wired
// constructor graph rather than the teacher's generated-wire variant, since
// BQL's graph is a handful of constructors, not the teacher's own product
// surface (sagas, projections, websocket hub) that `google/wire` existed to
// manage.
package container

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"bql/application/bql"
	"bql/application/ports"
	"bql/infrastructure/config"
	eventbridgepub "bql/infrastructure/events/eventbridge"
	"bql/infrastructure/persistence/dynamodb"
	"bql/infrastructure/persistence/memory"
	"bql/infrastructure/resilience"
	"bql/infrastructure/tracing"
	"bql/pkg/observability"
)

// Container holds every long-lived dependency the HTTP/Lambda entry points
// need.
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Engine        *bql.Engine
	Tracing       *tracing.Provider
	Registry      *prometheus.Registry
	DynamicLimits *config.DynamicConfigManager
	shutdown      []func(context.Context) error
}

// Build constructs a Container from cfg. The returned Container's Shutdown
// must be called on process exit to flush the tracer and logger.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	tp, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    cfg.Observability.ServiceName,
		OTLPEndpoint:   otlpEndpoint(cfg),
		SampleFraction: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	svc, err := buildGraphService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build graph service: %w", err)
	}

	publisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build event publisher: %w", err)
	}

	dynLimits, err := config.NewDynamicConfigManager(cfg, cfg.ConfigPath, logger)
	if err != nil {
		return nil, fmt.Errorf("build dynamic config manager: %w", err)
	}
	if err := dynLimits.Start(); err != nil {
		return nil, fmt.Errorf("start dynamic config manager: %w", err)
	}

	engine := bql.New(svc, func() bql.Limits {
		limits := dynLimits.GetEngineLimits()
		return bql.Limits{
			MaxHopUpper:    limits.MaxHopUpper,
			MaxSetBatch:    limits.MaxSetBatch,
			MaxDeleteBatch: limits.MaxDeleteBatch,
		}
	}, publisher, logger)

	var reg *prometheus.Registry
	if cfg.Observability.EnableMetrics {
		reg = prometheus.NewRegistry()
		engine.WithMetrics(observability.NewMetrics(reg, logger))
	}

	c := &Container{Config: cfg, Logger: logger, Engine: engine, Tracing: tp, Registry: reg, DynamicLimits: dynLimits}
	c.shutdown = append(c.shutdown,
		tp.Shutdown,
		func(context.Context) error { dynLimits.Stop(); return nil },
		func(context.Context) error { return logger.Sync() },
	)
	return c, nil
}

// Shutdown flushes tracing and the logger, in reverse build order.
func (c *Container) Shutdown(ctx context.Context) {
	for i := len(c.shutdown) - 1; i >= 0; i-- {
		_ = c.shutdown[i](ctx)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func otlpEndpoint(cfg *config.Config) string {
	if !cfg.Observability.EnableTracing {
		return ""
	}
	return "localhost:4317"
}

func buildGraphService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.GraphService, error) {
	var svc ports.GraphService

	switch cfg.GraphService.Backend {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		svc = dynamodb.New(client, cfg.GraphService.DynamoDBTable, cfg.GraphService.KeywordIndexName, logger)
	default:
		svc = memory.New()
	}

	return resilience.Wrap(svc, resilience.DefaultConfig("graph-service"), logger), nil
}

func buildPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if cfg.GraphService.EventBusName == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := eventbridge.NewFromConfig(awsCfg)
	return eventbridgepub.New(client, cfg.GraphService.EventBusName, logger), nil
}
