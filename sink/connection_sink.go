package sink

import (
	"context"
	"log/slog"
	"sync"

	"stranger-chat/domain/event"
	"stranger-chat/errors"
)

// ConnectionSink buffers the events addressed to one connection until its
// writer drains them. The channel is never closed: Close only flips done, so a
// late Consume from another goroutine cannot panic.
type ConnectionSink struct {
	log       *slog.Logger
	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		log:    log,
		events: make(chan event.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the coordinator and the relay, possibly under their lock.
// It never blocks: a full buffer drops the event.
func (s *ConnectionSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case s.events <- e:
		return nil
	default:
		s.log.Warn("Connection buffer full, dropping event", "event", e.Type())
		return errors.ErrSinkFull
	}
}

// Events is drained by the connection writer.
func (s *ConnectionSink) Events() <-chan event.Event {
	return s.events
}

// Done is closed once the sink stops accepting events.
func (s *ConnectionSink) Done() <-chan struct{} {
	return s.done
}

func (s *ConnectionSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
