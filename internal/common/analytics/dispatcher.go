package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/metrics"
)

// Sink is one delivery target for events.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

type DispatcherConfig struct {
	QueueSize       int
	Workers         int
	DeliveryTimeout time.Duration
}

// Dispatcher queues events and fans them out to every sink from a fixed pool
// of goroutines. A full queue drops the event instead of blocking Track.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	timeout time.Duration
	logger  logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(cfg DispatcherConfig, log logger.Logger, sinks ...Sink) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, cfg.QueueSize),
		timeout: cfg.DeliveryTimeout,
		logger:  log.WithFields(map[string]interface{}{"component": "analytics"}),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *Dispatcher) Track(_ context.Context, name string, properties map[string]interface{}) {
	event := NewEvent(name, properties)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.AnalyticsEventsDropped.Inc()
		return
	}

	select {
	case d.queue <- event:
	default:
		metrics.AnalyticsEventsDropped.Inc()
		d.logger.Warn("analytics queue full, dropping event", map[string]interface{}{
			"event":   name,
			"eventId": event.ID,
		})
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("analytics dispatcher did not drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		for _, sink := range d.sinks {
			d.deliver(sink, event)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.AnalyticsEventsFailed.WithLabelValues(sink.Name()).Inc()
			d.logger.Error("analytics sink panicked", map[string]interface{}{
				"sink":  sink.Name(),
				"event": event.Name,
				"panic": fmt.Sprint(r),
			})
		}
	}()

	if err := sink.Deliver(ctx, event); err != nil {
		metrics.AnalyticsEventsFailed.WithLabelValues(sink.Name()).Inc()
		d.logger.Warn("analytics delivery failed", map[string]interface{}{
			"sink":    sink.Name(),
			"event":   event.Name,
			"eventId": event.ID,
			"error":   err.Error(),
		})
		return
	}
	metrics.AnalyticsEventsDelivered.WithLabelValues(sink.Name()).Inc()
}
