package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whiteboard"

// Collector holds the engine's Prometheus metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	eventsTotal       *prometheus.CounterVec
	activeConnections prometheus.Gauge
	residentBoards    prometheus.Gauge
	droppedFrames     prometheus.Counter
	persistsTotal     *prometheus.CounterVec
	evictionsTotal    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound collaboration events by type",
		}, []string{"event"}),

		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Open WebSocket connections",
		}),

		residentBoards: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_boards",
			Help:      "Board sessions held in memory",
		}),

		droppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Outbound frames dropped because a connection queue was full",
		}),

		persistsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persists_total",
			Help:      "Board canvas saves by result",
		}, []string{"result"}),

		evictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Idle boards evicted from memory",
		}),
	}
}

// EventReceived counts one inbound event.
func (c *Collector) EventReceived(event string) {
	if c == nil {
		return
	}
	c.eventsTotal.WithLabelValues(event).Inc()
}

// ConnectionOpened increments the open connection gauge.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.activeConnections.Inc()
}

// ConnectionClosed decrements the open connection gauge.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.activeConnections.Dec()
}

// SetResidentBoards sets the resident board gauge.
func (c *Collector) SetResidentBoards(n int) {
	if c == nil {
		return
	}
	c.residentBoards.Set(float64(n))
}

// FrameDropped counts one dropped outbound frame.
func (c *Collector) FrameDropped() {
	if c == nil {
		return
	}
	c.droppedFrames.Inc()
}

// Persisted counts one save attempt.
func (c *Collector) Persisted(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.persistsTotal.WithLabelValues(result).Inc()
}

// Evicted counts one idle eviction.
func (c *Collector) Evicted() {
	if c == nil {
		return
	}
	c.evictionsTotal.Inc()
}
