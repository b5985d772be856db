// Package metrics exports probe session statistics as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "motionprobe"

// Collector holds the probe metrics on a private registry so that several
// collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	packetsReceived prometheus.Counter
	decodeErrors    prometheus.Counter
	droppedFrames   prometheus.Counter
	receiveTimeouts prometheus.Counter
	lastFrameID     prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		packetsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Motion packets decoded successfully",
		}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Payloads that could not be decoded",
		}),
		droppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Frames missing from the received frame id sequence",
		}),
		receiveTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_timeouts_total",
			Help:      "Receive waits that ended without data",
		}),
		lastFrameID: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_frame_id",
			Help:      "Frame id of the most recent decoded packet",
		}),
	}
}

// Gatherer returns the registry the metrics are registered on
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

func (c *Collector) Packet(frameID uint64) {
	c.packetsReceived.Inc()
	c.lastFrameID.Set(float64(frameID))
}

func (c *Collector) DecodeError() {
	c.decodeErrors.Inc()
}

func (c *Collector) Dropped(frames uint64) {
	c.droppedFrames.Add(float64(frames))
}

func (c *Collector) Timeout() {
	c.receiveTimeouts.Inc()
}
