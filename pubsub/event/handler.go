// Package event holds the asynchronous consumers of ticket lifecycle events.
package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"ticketing/entity"
)

type MailerService interface {
	SendConfirmationEmail(ctx context.Context, request entity.SendConfirmationEmailRequest) error
}

type AuditLog interface {
	StoreEvent(ctx context.Context, auditEvent entity.AuditEvent) error
}

type Handler struct {
	mailerService MailerService
	auditLog      AuditLog
}

func NewHandler(
	mailerService MailerService,
	auditLog AuditLog,
) Handler {
	if mailerService == nil {
		panic("missing mailerService")
	}
	if auditLog == nil {
		panic("missing auditLog")
	}

	return Handler{
		mailerService: mailerService,
		auditLog:      auditLog,
	}
}

// NewProcessorConfig gives every handler its own consumer group, so each
// consumes the full stream independently of the others.
func NewProcessorConfig(rdb *redis.Client, logger watermill.LoggerAdapter) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        rdb,
				ConsumerGroup: "svc-ticketing." + params.HandlerName,
			}, logger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return "events." + params.EventName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: logger,
	}
}
