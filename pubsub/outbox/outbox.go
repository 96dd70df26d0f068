// Package outbox publishes domain events from inside the database transaction
// that applies the corresponding state change, then forwards them to Redis.
// Events and state changes therefore commit or roll back together.
package outbox

import (
	"context"
	sqldb "database/sql"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
)

const Topic = "events_to_forward"

// NewPublisherForTx returns a publisher that writes messages to the outbox
// table within tx, enveloped for the forwarder.
func NewPublisherForTx(tx *sqldb.Tx, logger watermill.LoggerAdapter) (message.Publisher, error) {
	sqlPublisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return forwarder.NewPublisher(sqlPublisher, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	}), nil
}

// NewForwarder moves outbox messages from Postgres to the Redis stream their
// envelope names. Run it alongside the router for the lifetime of the service.
func NewForwarder(
	db *sqlx.DB,
	publisher message.Publisher,
	logger watermill.LoggerAdapter,
) (*forwarder.Forwarder, error) {
	sub, err := watermillSQL.NewSubscriber(db, watermillSQL.SubscriberConfig{
		SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
	}, logger)
	if err != nil {
		return nil, err
	}

	return forwarder.NewForwarder(sub, publisher, logger, forwarder.Config{
		ForwarderTopic: Topic,
	})
}

// InitializeSchema creates the outbox table up front, so transactional
// publishers (which must not run DDL inside their transaction) find it in
// place. Safe to call repeatedly.
func InitializeSchema(ctx context.Context, db *sqlx.DB, logger watermill.LoggerAdapter) error {
	sub, err := watermillSQL.NewSubscriber(db, watermillSQL.SubscriberConfig{
		SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
	}, logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	return sub.SubscribeInitialize(Topic)
}
