package db

import (
	"context"
	sqldb "database/sql"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketing/pkg/ctxlog"
	"ticketing/pubsub/bus"
	"ticketing/pubsub/outbox"
)

// eventBusForTx builds an event bus that stages events in the outbox table
// within tx, so a published event never outlives a rolled-back state change.
func eventBusForTx(ctx context.Context, tx *sqldb.Tx) (*cqrs.EventBus, error) {
	logger := ctxlog.NewWatermill(ctxlog.FromContext(ctx))

	publisher, err := outbox.NewPublisherForTx(tx, logger)
	if err != nil {
		return nil, fmt.Errorf("could not create outbox publisher: %w", err)
	}

	eventBus, err := bus.NewEventBus(ctxlog.CorrelationPublisherDecorator{Publisher: publisher})
	if err != nil {
		return nil, fmt.Errorf("could not create event bus: %w", err)
	}

	return eventBus, nil
}
