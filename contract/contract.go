//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-dm/domain"
	"chat-dm/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// The supervisor restarts it on error or panic
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for supervision logs only.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry maps identities to the sinks of their open sessions.
// One identity may hold several sessions (tabs, devices).
type IRegistry interface {
	GetSinks(identity domain.Identity) []EventSink
	Subscribe(sessionID string, identity domain.Identity, sink EventSink)
	Unsubscribe(sessionID string, identity domain.Identity)
}

// Publisher hands a stored message to the delivery pipeline.
// Publish never blocks on slow receivers.
type Publisher interface {
	Publish(to domain.Identity, msg domain.Message) error
}

// IOrchestrator is the delivery side seen by the services.
type IOrchestrator interface {
	Publisher
	RegisterSession(sessionID string, identity domain.Identity, sink EventSink)
	UnregisterSession(sessionID string, identity domain.Identity)
}
