// Package metrics holds the prometheus collectors of the visualizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesRenderedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ar_frames_rendered_total",
			Help: "Total number of frames rendered",
		},
	)

	frameStepPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ar_frame_step_panics_total",
			Help: "Total number of recovered panics per frame step",
		},
		[]string{"step"},
	)

	controlMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ar_control_messages_total",
			Help: "Total number of dispatched control messages by type and result",
		},
		[]string{"type", "result"},
	)

	levelGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ar_level",
			Help: "Current normalised level per band",
		},
		[]string{"band"},
	)

	levelSourceRemote = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ar_level_source_remote",
			Help: "1 when levels come from the remote feed, 0 when analysed locally",
		},
	)

	particleCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ar_particle_capacity",
			Help: "Number of particles in the starfield pool",
		},
	)

	imageLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ar_image_loads_total",
			Help: "Total number of image loads by role and result",
		},
		[]string{"role", "result"},
	)

	levelClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ar_level_clients",
			Help: "Number of connected level subscribers",
		},
	)
)

// Image load results.
const (
	LoadApplied = "applied"
	LoadStale   = "stale"
	LoadFailed  = "failed"
)

func FrameRendered() {
	framesRenderedTotal.Inc()
}

func StepPanicked(step string) {
	frameStepPanicsTotal.WithLabelValues(step).Inc()
}

// ControlMessage counts a dispatched message. Types outside the known set
// are folded into "unknown".
func ControlMessage(typ string, known, ok bool) {
	if !known {
		typ = "unknown"
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	controlMessagesTotal.WithLabelValues(typ, result).Inc()
}

func SetLevels(low, mid, high float64) {
	levelGauge.WithLabelValues("low").Set(low)
	levelGauge.WithLabelValues("mid").Set(mid)
	levelGauge.WithLabelValues("high").Set(high)
}

func SetRemoteSource(remote bool) {
	if remote {
		levelSourceRemote.Set(1)
		return
	}
	levelSourceRemote.Set(0)
}

func SetParticleCapacity(n int) {
	particleCapacity.Set(float64(n))
}

func ImageLoad(role, result string) {
	imageLoadsTotal.WithLabelValues(role, result).Inc()
}

func LevelClientConnected()    { levelClients.Inc() }
func LevelClientDisconnected() { levelClients.Dec() }
