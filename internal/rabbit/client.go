package rabbit

import (
	"context"
	"fmt"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

const (
	consumerTag   = "clubevents-auto-close"
	prefetchCount = 10

	// retryDelaySeconds is how long a message whose handler failed waits
	// before it is delivered again.
	retryDelaySeconds = 30
)

// Client publishes to and consumes from a single queue bound to an
// x-delayed-message exchange (rabbitmq_delayed_message_exchange plugin).
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
}

type Broker interface {
	Publish(message []byte, delaySeconds int) error
	Consume(ctx context.Context, handler func([]byte) error) error
	Close()
}

var _ Broker = (*Client)(nil)

func NewRabbit(url, exchange, queue string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		zlog.Logger.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	client := &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
	}

	if err := client.declare(); err != nil {
		client.Close()
		return nil, err
	}

	zlog.Logger.Info().Msgf("RabbitMQ initialized (exchange=%s, queue=%s)", exchange, queue)
	return client, nil
}

func (c *Client) declare() error {
	args := amqp.Table{"x-delayed-type": "direct"}
	if err := c.channel.ExchangeDeclare(
		c.exchange,
		"x-delayed-message",
		true,
		false,
		false,
		false,
		args,
	); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to declare exchange")
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to declare queue")
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	if err := c.channel.QueueBind(
		c.queue,
		"",
		c.exchange,
		false,
		nil,
	); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to bind queue")
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}

	if err := c.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	zlog.Logger.Info().Msg("RabbitMQ connection closed")
}

// Publish sends message with an x-delay header. Delays above the 32-bit
// millisecond limit are clamped.
func (c *Client) Publish(message []byte, delaySeconds int) error {
	headers := amqp.Table{}
	if delaySeconds > 0 {
		headers["x-delay"] = delayMillis(delaySeconds)
	}

	err := c.channel.Publish(
		c.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         message,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to publish message to RabbitMQ")
	} else {
		zlog.Logger.Debug().Msgf("Message published to exchange=%s delay=%ds", c.exchange, delaySeconds)
	}
	return err
}

// Consume delivers messages to handler until ctx is cancelled. A message
// whose handler fails is published again after retryDelaySeconds.
func (c *Client) Consume(ctx context.Context, handler func([]byte) error) error {
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to start consuming messages")
		return err
	}

	go func() {
		<-ctx.Done()
		_ = c.channel.Cancel(consumerTag, false)
	}()

	go func() {
		for d := range msgs {
			settle(d, handler(d.Body), c.Publish)
		}
	}()

	zlog.Logger.Info().Msgf("Started consuming from queue %s", c.queue)
	return nil
}

// settle acks d once it is handled. On failure the body is republished with
// a delay and the original acked; if that publish fails too, d is requeued.
func settle(d amqp.Delivery, handlerErr error, republish func([]byte, int) error) {
	if handlerErr == nil {
		_ = d.Ack(false)
		return
	}
	zlog.Logger.Warn().Err(handlerErr).Msgf("failed to process message, retrying in %ds", retryDelaySeconds)
	if err := republish(d.Body, retryDelaySeconds); err != nil {
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func delayMillis(delaySeconds int) int32 {
	ms := int64(delaySeconds) * 1000
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(ms)
}
