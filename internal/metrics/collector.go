package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventBatchStarted   EventType = "batch_started"
	EventProbeCompleted EventType = "probe_completed"
	EventDomainVerdict  EventType = "domain_verdict"
	EventProgress       EventType = "progress"
	EventBatchCompleted EventType = "batch_completed"
)

// Event is one notification from the probe coordinator. Fields are filled
// according to Type.
type Event struct {
	Type      EventType
	Timestamp time.Time
	BatchID   string

	// Probe fields.
	Domain     string
	Egress     string
	Duration   time.Duration
	StatusCode int
	Failed     bool
	Blocked    bool
	Reason     string

	// Verdict field: one of the report partitions.
	Status string

	// Progress fields. Index counts completed domains.
	Index int
	Total int
}

// Listener receives every event after it has been aggregated.
type Listener func(Event)

type Collector struct {
	eventCh   chan Event
	metrics   *Metrics
	logger    *slog.Logger
	listeners []Listener
	done      chan struct{}
	startOnce sync.Once
}

func NewCollector(bufferSize int, logger *slog.Logger, listeners ...Listener) *Collector {
	return &Collector{
		eventCh:   make(chan Event, bufferSize),
		metrics:   NewMetrics(),
		logger:    logger,
		listeners: listeners,
		done:      make(chan struct{}),
	}
}

func (c *Collector) EventChannel() chan<- Event {
	return c.eventCh
}

func (c *Collector) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.run(ctx)
	})
}

// Done is closed once the collector has drained and stopped.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Debug("Metrics collector started")
	defer c.logger.Debug("Metrics collector stopped")
	defer close(c.done)

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventBatchStarted:
		c.metrics.StartBatch(event.BatchID, event.Total)

	case EventProbeCompleted:
		c.metrics.RecordProbe(event.Egress, event.Duration, event.StatusCode, event.Failed, event.Blocked)

	case EventDomainVerdict:
		c.metrics.RecordVerdict(event.Status)

	case EventProgress:
		c.metrics.UpdateProgress(event.Index, event.Total)

	case EventBatchCompleted:
		c.metrics.FinishBatch()
	}

	for _, l := range c.listeners {
		l(event)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
