package produce

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EmailExchange               = "email_exchange"
	ShareNotificationQueue      = "email.share-notifications"
	ShareNotificationRoutingKey = "email.notification"
)

type ShareNotificationMessage struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	ItemName  string `json:"itemName"`
	Level     string `json:"level"`
}

type EmailService struct {
	channel *amqp.Channel
}

func InitEmailService(channel *amqp.Channel) *EmailService {
	svc := &EmailService{
		channel: channel,
	}
	if err := svc.declareTopology(); err != nil {
		panic(fmt.Sprintf("Failed to declare email topology: %v", err))
	}
	return svc
}

func (s *EmailService) declareTopology() error {
	if err := s.channel.ExchangeDeclare(
		EmailExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare email exchange: %w", err)
	}

	if _, err := s.channel.QueueDeclare(
		ShareNotificationQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare share notification queue: %w", err)
	}

	if err := s.channel.QueueBind(
		ShareNotificationQueue,
		ShareNotificationRoutingKey,
		EmailExchange,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind share notification queue: %w", err)
	}

	return nil
}

// SendShareNotification publishes a share notification for the email worker.
// Delivery is fire-and-forget: a publish failure never rolls back the grant.
func (s *EmailService) SendShareNotification(ctx context.Context, recipient, itemName, level string) error {
	message := ShareNotificationMessage{
		Type:      "share",
		Recipient: recipient,
		ItemName:  itemName,
		Level:     level,
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal share notification: %w", err)
	}

	err = s.channel.PublishWithContext(
		ctx,
		EmailExchange,
		ShareNotificationRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish share notification: %w", err)
	}

	return nil
}
