// Package resilience wraps a ports.GraphService in a circuit breaker, so a
// struggling backend fails fast instead of piling up blocked suspension
// points (§5). Grounded on the teacher's
// internal/middleware/circuit_breaker.go gobreaker configuration and
// failure-ratio ReadyToTrip, adapted from HTTP middleware to a port
// decorator since BQL's external collaborator is a Go interface, not an
// inbound HTTP handler.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"bql/application/ports"
	"bql/domain/bql/relation"
	apperrors "bql/pkg/errors"
)

// Config configures the breaker. Mirrors the teacher's
// CircuitBreakerConfig fields.
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig matches the teacher's DefaultCircuitBreakerConfig posture.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// Service wraps a ports.GraphService, tripping after a sustained failure
// ratio and short-circuiting further calls with a ServiceError until the
// breaker's timeout elapses.
type Service struct {
	inner  ports.GraphService
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// Wrap builds a Service around inner.
func Wrap(inner ports.GraphService, cfg Config, logger *zap.Logger) *Service {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("graph service circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Service{inner: inner, cb: cb, logger: logger}
}

var _ ports.GraphService = (*Service)(nil)

func run[T any](s *Service, op string, fn func() (T, error)) (T, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return zero, apperrors.NewService(op+": graph service circuit breaker open", err, false)
		}
		return zero, err
	}
	return result.(T), nil
}

func (s *Service) GetByName(ctx context.Context, activeGraphID, name string) (*ports.NodeRecord, error) {
	return run(s, "get-by-name", func() (*ports.NodeRecord, error) { return s.inner.GetByName(ctx, activeGraphID, name) })
}

func (s *Service) Search(ctx context.Context, activeGraphID, query string) ([]ports.NodeRecord, error) {
	return run(s, "search", func() ([]ports.NodeRecord, error) { return s.inner.Search(ctx, activeGraphID, query) })
}

func (s *Service) ListTypes(ctx context.Context, activeGraphID string) ([]ports.TypeRecord, error) {
	return run(s, "list-types", func() ([]ports.TypeRecord, error) { return s.inner.ListTypes(ctx, activeGraphID) })
}

func (s *Service) Neighborhood(ctx context.Context, activeGraphID, nodeID string, kinds []relation.Kind) ([]ports.Neighbor, error) {
	return run(s, "neighborhood", func() ([]ports.Neighbor, error) {
		return s.inner.Neighborhood(ctx, activeGraphID, nodeID, kinds)
	})
}

func (s *Service) CreateNode(ctx context.Context, activeGraphID string, input ports.NewNodeInput) (string, error) {
	return run(s, "create-node", func() (string, error) { return s.inner.CreateNode(ctx, activeGraphID, input) })
}

func (s *Service) CreateEdge(ctx context.Context, activeGraphID string, sourceID string, rel relation.Kind, targetID string) (string, error) {
	return run(s, "create-edge", func() (string, error) {
		return s.inner.CreateEdge(ctx, activeGraphID, sourceID, rel, targetID)
	})
}

func (s *Service) UpdateNode(ctx context.Context, activeGraphID, nodeID, property string, value *string) error {
	_, err := run(s, "update-node", func() (struct{}, error) {
		return struct{}{}, s.inner.UpdateNode(ctx, activeGraphID, nodeID, property, value)
	})
	return err
}

func (s *Service) UpdateType(ctx context.Context, activeGraphID, nodeID, typeID string) error {
	_, err := run(s, "update-type", func() (struct{}, error) {
		return struct{}{}, s.inner.UpdateType(ctx, activeGraphID, nodeID, typeID)
	})
	return err
}

func (s *Service) DeleteNode(ctx context.Context, activeGraphID, nodeID string) error {
	_, err := run(s, "delete-node", func() (struct{}, error) {
		return struct{}{}, s.inner.DeleteNode(ctx, activeGraphID, nodeID)
	})
	return err
}

func (s *Service) DeleteEdge(ctx context.Context, activeGraphID, edgeID string) error {
	_, err := run(s, "delete-edge", func() (struct{}, error) {
		return struct{}{}, s.inner.DeleteEdge(ctx, activeGraphID, edgeID)
	})
	return err
}
