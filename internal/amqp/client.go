package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"fintrack/internal/log"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

// setup declares the durable direct exchange and queue, bound with
// the queue name as routing key.
func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct",
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(c.queueName,
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(c.queueName, c.queueName,
		c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishVoucherIssue asks the worker to derive a voucher from the
// given transaction. The transaction is already committed locally;
// this publish is an independent write with no atomicity tie to it.
func (c *Client) PublishVoucherIssue(ctx context.Context, ownerID, transactionID string) error {
	return c.publish(ctx, &Message{
		Kind:          KindVoucherIssue,
		OwnerID:       ownerID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	})
}

// PublishGoalVoucher asks the worker to derive a voucher from a goal
// contribution.
func (c *Client) PublishGoalVoucher(ctx context.Context, ownerID, goalID string, amount decimal.Decimal) error {
	return c.publish(ctx, &Message{
		Kind:      KindGoalVoucher,
		OwnerID:   ownerID,
		GoalID:    goalID,
		Amount:    amount.String(),
		Timestamp: time.Now(),
	})
}

// PublishLedgerSync asks the worker to append a transaction to the
// external spreadsheet ledger.
func (c *Client) PublishLedgerSync(ctx context.Context, ownerID, transactionID string) error {
	return c.publish(ctx, &Message{
		Kind:          KindLedgerSync,
		OwnerID:       ownerID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	})
}

func (c *Client) publish(ctx context.Context, msg *Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published worker message",
		"kind", string(msg.Kind),
		log.FieldOwnerID, msg.OwnerID,
		log.FieldTransactionID, msg.TransactionID,
		log.FieldGoalID, msg.GoalID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// Consume delivers queued messages to handler with manual ack. A
// handler error nacks with requeue; an undecodable body is dropped.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, *Message) error) error {
	// auto-ack off: delivery outcome is decided per handler result
	msgs, err := c.channel.Consume(c.queueName, "",
		false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming worker messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := MessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					log.FieldError, err,
					"kind", string(msg.Kind),
					log.FieldOwnerID, msg.OwnerID)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
