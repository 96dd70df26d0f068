package ctxlog

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

const correlationIDMetadataKey = "correlation_id"

// CorrelationPublisherDecorator stamps outgoing messages with the correlation
// ID from their context, so consumers can log under the same ID.
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (d CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for i := range messages {
		if messages[i].Metadata.Get(correlationIDMetadataKey) != "" {
			continue
		}
		messages[i].Metadata.Set(correlationIDMetadataKey, CorrelationIDFromContext(messages[i].Context()))
	}
	return d.Publisher.Publish(topic, messages...)
}

// CorrelationIDFromMessageMetadata reads the correlation ID a publisher
// stamped on the message, if any.
func CorrelationIDFromMessageMetadata(msg *message.Message) string {
	return msg.Metadata.Get(correlationIDMetadataKey)
}
