// Package runtime handles real-time delivery of stored messages.
// It moves events around without containing business rules.
package runtime

import (
	"chat-dm/contract"
	"chat-dm/domain"
	"chat-dm/observability"
	"chat-dm/runtime/workers"
	"context"
	"log/slog"
	"time"
)

// Orchestrator wires the dispatcher, the session registry and the
// supervised delivery worker.
type Orchestrator struct {
	log         *slog.Logger
	supervisor  contract.ISupervisor
	registry    *Registry
	dispatcher  *Dispatcher
	metrics     *observability.Metrics
	sinkTimeout time.Duration

	metricInterval time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	dispatcher *Dispatcher, metrics *observability.Metrics, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		dispatcher:  dispatcher,
		metrics:     metrics,
		sinkTimeout: sinkTimeout,
	}
}

// WithChannelSampling samples the delivery buffer every interval.
// Zero disables sampling.
func (o *Orchestrator) WithChannelSampling(interval time.Duration) *Orchestrator {
	o.metricInterval = interval
	return o
}

// Publish implements contract.Publisher.
// Nothing is queued for an identity without an open session.
func (o *Orchestrator) Publish(to domain.Identity, msg domain.Message) error {
	if !o.registry.Online(to) {
		o.log.Debug("Recipient offline, nothing to deliver", "to", to, "message", msg.ID)
		return nil
	}
	return o.dispatcher.Publish(to, msg)
}

func (o *Orchestrator) RegisterSession(sessionID string, identity domain.Identity, sink contract.EventSink) {
	o.registry.Subscribe(sessionID, identity, sink)
	if o.metrics != nil {
		o.metrics.OpenStreams.Inc()
	}
}

func (o *Orchestrator) UnregisterSession(sessionID string, identity domain.Identity) {
	o.registry.Unsubscribe(sessionID, identity)
	if o.metrics != nil {
		o.metrics.OpenStreams.Dec()
	}
}

// Start registers the delivery worker and blocks until ctx is canceled
// or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	delivery := workers.NewDeliveryWorker(o.log, o.dispatcher.Events(), o.registry, o.metrics, o.sinkTimeout)
	o.supervisor.Add(delivery)
	if o.metricInterval > 0 && o.metrics != nil {
		o.supervisor.Add(workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
			{Name: "deliveries", Channel: o.dispatcher.events},
		}, o.metrics, o.metricInterval))
	}
	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) Stop() {
	o.supervisor.Stop()
}
