package workers

import (
	"chat-dm/contract"
	"chat-dm/domain/event"
	"chat-dm/observability"
	"context"
	"log/slog"
	"time"
)

// DeliveryWorker drains the dispatcher and pushes each event to every
// open session of its target identity.
//
// Delivery is best effort: no retry, no durability. A sink that does not
// accept the event within sinkTimeout is skipped. Events for one identity
// are consumed in the order they were published.
type DeliveryWorker struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	registry    contract.IRegistry
	metrics     *observability.Metrics
	sinkTimeout time.Duration
}

func NewDeliveryWorker(log *slog.Logger, events <-chan event.DomainEvent,
	registry contract.IRegistry, metrics *observability.Metrics, sinkTimeout time.Duration) *DeliveryWorker {
	return &DeliveryWorker{
		log:         log,
		events:      events,
		registry:    registry,
		metrics:     metrics,
		sinkTimeout: sinkTimeout,
	}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping delivery")
			return nil
		}
	}
}

// Fanout hands evt to each sink of its target, one at a time.
func (w *DeliveryWorker) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.GetSinks(evt.Target())
	if len(sinks) == 0 {
		w.log.Debug("No open session", "target", evt.Target())
		return
	}
	for _, sink := range sinks {
		w.consume(ctx, sink, evt)
	}
}

func (w *DeliveryWorker) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Debug("Delivery skipped", "target", evt.Target(), "error", err)
		w.observe(observability.OutcomeDropped)
		return
	}
	w.observe(observability.OutcomeOK)
}

func (w *DeliveryWorker) observe(outcome string) {
	if w.metrics != nil {
		w.metrics.Deliveries.WithLabelValues(outcome).Inc()
	}
}
