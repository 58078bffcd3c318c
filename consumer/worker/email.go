package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/infra/produce"
)

type EmailConsumer struct {
	channel *amqp.Channel
	infra   *infra.Infra
}

func NewEmailConsumer(channel *amqp.Channel, infra *infra.Infra) *EmailConsumer {
	return &EmailConsumer{
		channel: channel,
		infra:   infra,
	}
}

func (c *EmailConsumer) Start(ctx context.Context) error {
	if err := c.startShareNotificationConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start share notification consumer: %w", err)
	}
	return nil
}

func (c *EmailConsumer) startShareNotificationConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.ShareNotificationQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register share notification consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Email Consumer] Started listening for share notifications on queue: %s", produce.ShareNotificationQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Email Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Email Consumer] Channel closed")
					return
				}
				c.handleShareNotification(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *EmailConsumer) handleShareNotification(ctx context.Context, msg amqp.Delivery) {
	var notification produce.ShareNotificationMessage
	if err := json.Unmarshal(msg.Body, &notification); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Email Consumer] Failed to unmarshal share notification: %v", err)
		msg.Nack(false, false)
		return
	}

	// No SMTP relay is wired up yet, so delivery is a structured log line.
	c.infra.Logger.InfoWithContextf(ctx, "[Email Consumer] Share notification for %s: item %q shared with level %s",
		notification.Recipient, notification.ItemName, notification.Level)

	if err := msg.Ack(false); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Email Consumer] Failed to ack share notification: %v", err)
	}
}
