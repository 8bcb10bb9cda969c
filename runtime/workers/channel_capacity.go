package workers

import (
	"chat-dm/observability"
	"context"
	"log/slog"
	"reflect"
	"time"
)

// saturationRatio is the fill level above which a channel is reported.
const saturationRatio = 0.8

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length and capacity of
// buffered channels into gauges. Reading len and cap never blocks, so
// sampling doesn't interfere with producers or consumers.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	metrics        *observability.Metrics
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	metrics *observability.Metrics, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		metrics:        metrics,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample records one reading per channel.
func (w *ChannelCapacityWorker) Sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		w.metrics.ChannelCapacity.WithLabelValues(nc.Name).Set(float64(capacity))
		w.metrics.ChannelLength.WithLabelValues(nc.Name).Set(float64(length))
		if capacity > 0 && float64(length) >= saturationRatio*float64(capacity) {
			w.log.Warn("Channel close to saturation", "name", nc.Name, "length", length, "capacity", capacity)
		}
	}
}
