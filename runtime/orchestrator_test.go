package runtime

import (
	"chat-dm/domain"
	"chat-dm/domain/event"
	"chat-dm/observability"
	"chat-dm/runtime/workers"
	"chat-dm/sink"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	return NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), NewRegistry(),
		NewDispatcher(log, 16), observability.NewMetrics(), 100*time.Millisecond).
		WithChannelSampling(10 * time.Millisecond)
}

func TestOrchestrator_Delivers_To_Every_Session(t *testing.T) {
	req := require.New(t)
	orchestrator := newOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Given bob has two open streams
	laptop := sink.NewChannelSink(4)
	phone := sink.NewChannelSink(4)
	orchestrator.RegisterSession(uuid.NewString(), "bob", laptop)
	orchestrator.RegisterSession(uuid.NewString(), "bob", phone)
	req.Equal(float64(2), testutil.ToFloat64(orchestrator.metrics.OpenStreams))

	// When a message for bob is published
	content := "hi"
	msg := domain.Message{ID: uuid.New(), Sender: "alice", Recipient: "bob", Content: &content}
	req.NoError(orchestrator.Publish("bob", msg))

	// Then both streams receive it
	for _, s := range []*sink.ChannelSink{laptop, phone} {
		select {
		case evt := <-s.Events():
			req.Equal(msg.ID, evt.(event.MessageDelivered).Message.ID)
		case <-time.After(time.Second):
			req.Fail("message was not delivered")
		}
	}
}

func TestOrchestrator_Unregistered_Session_Receives_Nothing(t *testing.T) {
	req := require.New(t)
	orchestrator := newOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()

	sessionID := uuid.NewString()
	stream := sink.NewChannelSink(4)
	orchestrator.RegisterSession(sessionID, "bob", stream)
	orchestrator.UnregisterSession(sessionID, "bob")
	req.Equal(float64(0), testutil.ToFloat64(orchestrator.metrics.OpenStreams))

	req.NoError(orchestrator.Publish("bob", domain.Message{ID: uuid.New()}))

	select {
	case <-stream.Events():
		req.Fail("closed session should not receive")
	case <-time.After(50 * time.Millisecond):
	}

	// Canceling the context ends Start
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("orchestrator did not stop")
	}
}

func TestOrchestrator_Samples_Delivery_Buffer(t *testing.T) {
	req := require.New(t)
	orchestrator := newOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	req.Eventually(func() bool {
		return testutil.ToFloat64(orchestrator.metrics.ChannelCapacity.WithLabelValues("deliveries")) == 16
	}, time.Second, 10*time.Millisecond)
}

func TestOrchestrator_Publish_Skips_Offline_Identities(t *testing.T) {
	req := require.New(t)
	orchestrator := newOrchestrator(t)
	msg := domain.Message{ID: uuid.New(), Sender: "alice", Recipient: "dave"}

	// Given dave has no open stream, nothing is queued
	req.NoError(orchestrator.Publish("dave", msg))
	req.Len(orchestrator.dispatcher.events, 0)

	// When dave opens a stream, the next message is queued for delivery
	orchestrator.RegisterSession(uuid.NewString(), "dave", sink.NewChannelSink(1))
	req.NoError(orchestrator.Publish("dave", msg))
	req.Len(orchestrator.dispatcher.events, 1)
}
