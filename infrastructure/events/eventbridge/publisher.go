// Package eventbridge implements ports.EventPublisher over AWS EventBridge,
// for auditing applied mutations. Grounded on
// infrastructure/messaging/eventbridge/publisher.go's PutEvents batching
// and error-handling shape, narrowed from the teacher's generic
// events.DomainEvent fan-out to BQL's single MutationEvent record.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"bql/application/ports"
)

const defaultSource = "bql.engine"

// Publisher implements ports.EventPublisher against a single EventBridge
// bus.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	source       string
	logger       *zap.Logger
}

// New returns a Publisher writing to eventBusName.
func New(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		source:       defaultSource,
		logger:       logger,
	}
}

var _ ports.EventPublisher = (*Publisher)(nil)

// PublishMutation sends one MutationEvent as a PutEvents entry. Errors are
// returned to the caller but are expected to be logged-and-ignored by
// mutate.Executor — a failed audit write must never fail the mutation it
// describes.
func (p *Publisher) PublishMutation(ctx context.Context, event ports.MutationEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal mutation event: %w", err)
	}

	resourceID := event.NodeID
	if resourceID == "" {
		resourceID = event.EdgeID
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(p.source),
				DetailType:   aws.String(event.Operation),
				Detail:       aws.String(string(detail)),
				Resources:    []string{fmt.Sprintf("bql:mutation:%s", resourceID)},
			},
		},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("publish mutation event to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("mutation event failed to publish",
					zap.String("operation", event.Operation),
					zap.String("errorCode", *entry.ErrorCode),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("mutation event failed to publish")
	}

	p.logger.Debug("mutation event published",
		zap.String("operation", event.Operation),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}
