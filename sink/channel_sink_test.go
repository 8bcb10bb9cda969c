package sink

import (
	"chat-dm/domain"
	"chat-dm/domain/event"
	"chat-dm/errors"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelSink_Consume(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)
	evt := event.MessageDelivered{To: "bob", Message: domain.Message{Sender: "alice", Recipient: "bob"}}

	// When an event is consumed
	req.NoError(s.Consume(context.Background(), evt))

	// Then the stream side receives it
	req.Equal(event.DomainEvent(evt), <-s.Events())
}

func TestChannelSink_Consume_Full(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)
	evt := event.MessageDelivered{To: "bob"}

	// Given a client that never reads
	req.NoError(s.Consume(context.Background(), evt))

	// When another event arrives
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := s.Consume(ctx, evt)

	// Then it is dropped once the deadline passes
	req.ErrorIs(err, errors.ErrDeliveryBufferOverflow)
	req.ErrorIs(err, context.DeadlineExceeded)
	req.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
}

func TestChannelSink_Consume_Waits_For_Reader(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)
	first := event.MessageDelivered{To: "bob", Message: domain.Message{Sender: "alice"}}
	second := event.MessageDelivered{To: "bob", Message: domain.Message{Sender: "carol"}}
	req.NoError(s.Consume(context.Background(), first))

	// Given a client that reads a little later
	go func() {
		time.Sleep(10 * time.Millisecond)
		<-s.Events()
	}()

	// When another event arrives within the deadline
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Then it is kept
	req.NoError(s.Consume(ctx, second))
	req.Equal(event.DomainEvent(second), <-s.Events())
}

func TestChannelSink_Consume_Canceled(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Consume(ctx, event.MessageDelivered{To: "bob"})

	req.ErrorIs(err, context.Canceled)
}
