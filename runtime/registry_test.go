package runtime

import (
	"chat-dm/contract"
	"chat-dm/domain"
	"chat-dm/domain/event"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Identity_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	alice := domain.Identity("alice")
	sink := Sink{name: "tab"}

	// Given nobody is connected
	req.Empty(registry.sessions)
	req.Empty(registry.owners)
	req.False(registry.Online(alice))

	// When alice opens a session
	registry.Subscribe(sessionID, alice, sink)

	// Then
	req.Len(registry.sessions, 1)
	req.Equal(sink, registry.sessions[sessionID])
	req.Len(registry.owners, 1)
	req.Contains(registry.owners[alice], sessionID)
	req.True(registry.Online(alice))

	req.Len(registry.GetSinks(alice), 1)
	req.Contains(registry.GetSinks(alice), sink)
}

func TestRegistry_Subscribe_One_Identity_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := domain.Identity("alice")
	laptop := Sink{name: "laptop"}
	phone := Sink{name: "phone"}

	// When alice opens two sessions
	registry.Subscribe(uuid.NewString(), alice, laptop)
	registry.Subscribe(uuid.NewString(), alice, phone)

	// Then both sinks receive her messages
	req.Len(registry.sessions, 2)
	req.Len(registry.owners[alice], 2)
	req.ElementsMatch([]contract.EventSink{laptop, phone}, registry.GetSinks(alice))
}

func TestRegistry_GetSinks_Isolated_By_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	aliceSink := Sink{name: "alice"}
	bobSink := Sink{name: "bob"}

	registry.Subscribe(uuid.NewString(), "alice", aliceSink)
	registry.Subscribe(uuid.NewString(), "bob", bobSink)

	req.Equal([]contract.EventSink{aliceSink}, registry.GetSinks("alice"))
	req.Equal([]contract.EventSink{bobSink}, registry.GetSinks("bob"))
	req.Nil(registry.GetSinks("carol"))
}

func TestRegistry_UnSubscribe_Last_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	alice := domain.Identity("alice")

	// Given alice has one session
	registry.Subscribe(sessionID, alice, Sink{})

	// When she closes it
	registry.Unsubscribe(sessionID, alice)

	// Then nothing is left behind
	req.Empty(registry.sessions)
	req.Empty(registry.owners)
	req.Nil(registry.GetSinks(alice))
	req.False(registry.Online(alice))
}

func TestRegistry_UnSubscribe_One_Of_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := domain.Identity("alice")
	first := uuid.NewString()
	laptop := Sink{name: "laptop"}
	phone := Sink{name: "phone"}

	registry.Subscribe(first, alice, laptop)
	registry.Subscribe(uuid.NewString(), alice, phone)

	// When one session closes
	registry.Unsubscribe(first, alice)

	// Then the other one still receives
	req.Len(registry.sessions, 1)
	req.Len(registry.owners[alice], 1)
	req.Equal([]contract.EventSink{phone}, registry.GetSinks(alice))
}
