package sink

import (
	"chat-dm/domain/event"
	"chat-dm/errors"
	"context"
	"fmt"
)

// ChannelSink backs one open stream. The delivery worker pushes into it
// and the stream handler drains Events.
type ChannelSink struct {
	events chan event.DomainEvent
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the delivery worker. It waits for room in the
// buffer until ctx is done, then drops the event.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	default:
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errors.ErrDeliveryBufferOverflow, ctx.Err())
	}
}

func (s *ChannelSink) Events() <-chan event.DomainEvent {
	return s.events
}
