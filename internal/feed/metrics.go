package feed

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the feed server's Prometheus collectors.
type Metrics struct {
	Subscribers   prometheus.Gauge
	FramesSent    prometheus.Counter
	FramesDropped prometheus.Counter
	CaptureErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vlanwatch",
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Open packet feed subscriptions.",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vlanwatch",
			Subsystem: "feed",
			Name:      "frames_sent_total",
			Help:      "Frames queued to subscribers.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vlanwatch",
			Subsystem: "feed",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because a subscriber fell behind.",
		}),
		CaptureErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vlanwatch",
			Subsystem: "feed",
			Name:      "capture_errors_total",
			Help:      "Captures that ended with an error.",
		}),
	}
	reg.MustRegister(m.Subscribers, m.FramesSent, m.FramesDropped, m.CaptureErrors)
	return m
}
