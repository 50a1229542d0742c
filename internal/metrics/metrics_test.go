package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Records(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.EventReceived("stroke_start")
	c.EventReceived("stroke_start")
	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.SetResidentBoards(3)
	c.FrameDropped()
	c.Persisted(nil)
	c.Persisted(errors.New("boom"))
	c.Evicted()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("stroke_start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeConnections))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.residentBoards))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.droppedFrames))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.persistsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.persistsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evictionsTotal))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.EventReceived("x")
		c.ConnectionOpened()
		c.ConnectionClosed()
		c.SetResidentBoards(1)
		c.FrameDropped()
		c.Persisted(nil)
		c.Evicted()
	})
}
