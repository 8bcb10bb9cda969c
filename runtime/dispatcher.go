package runtime

import (
	"chat-dm/domain"
	"chat-dm/domain/event"
	"chat-dm/errors"
	"fmt"
	"log/slog"
)

// Dispatcher is the hand-off between request handlers and the delivery
// worker. Publish never waits: a full buffer drops the event.
type Dispatcher struct {
	log    *slog.Logger
	events chan event.DomainEvent
}

func NewDispatcher(log *slog.Logger, bufferSize int) *Dispatcher {
	return &Dispatcher{log: log, events: make(chan event.DomainEvent, bufferSize)}
}

func (d *Dispatcher) Publish(to domain.Identity, msg domain.Message) error {
	select {
	case d.events <- event.MessageDelivered{To: to, Message: msg}:
		return nil
	default:
		d.log.Warn(fmt.Sprintf("Delivery buffer full, dropping message %s for %s", msg.ID, to))
		return errors.ErrDeliveryBufferOverflow
	}
}

// Events is drained by the delivery worker.
func (d *Dispatcher) Events() <-chan event.DomainEvent {
	return d.events
}
