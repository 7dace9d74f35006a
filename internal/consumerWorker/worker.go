package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"clubevents/internal/dto"
	"clubevents/internal/rabbit"
)

// EventCloser closes an event whose registration window has ended.
type EventCloser interface {
	CloseIfDue(ctx context.Context, msg dto.EventCloseMessage) (bool, error)
}

// Reader consumes auto-close messages.
type Reader struct {
	RMQ    rabbit.Broker
	closer EventCloser
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq rabbit.Broker, closer EventCloser) *Reader {
	return &Reader{
		RMQ:    rmq,
		closer: closer,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("RabbitMQ Reader started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(cctx, func(body []byte) error {
			return r.handle(cctx, body)
		}); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("RabbitMQ Reader stopped by context")
	}()
}

// handle processes one message. Undecodable messages are dropped; storage
// failures are returned so the message is retried later.
func (r *Reader) handle(ctx context.Context, body []byte) error {
	var msg dto.EventCloseMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("Dropping malformed message: %s", string(body))
		return nil
	}

	zlog.Logger.Info().
		Int64("event_id", msg.EventID).
		Time("close_at", msg.CloseAt).
		Msg("Received auto-close message")

	closed, err := r.closer.CloseIfDue(ctx, msg)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int64("event_id", msg.EventID).
			Msg("Failed to close event")
		return err
	}

	if !closed {
		zlog.Logger.Info().
			Int64("event_id", msg.EventID).
			Msg("Event not closed (not due, already closed or window changed)")
	}
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
