package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// QueueNotifier hands messages to a watermill publisher (Redis streams in
// production) for a separate mailer process to deliver.
type QueueNotifier struct {
	publisher message.Publisher
	topic     string
}

func NewQueueNotifier(publisher message.Publisher, topic string) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, topic: topic}
}

func (n *QueueNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)
	m.Metadata.Set("to", msg.To)

	if err := n.publisher.Publish(n.topic, m); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
