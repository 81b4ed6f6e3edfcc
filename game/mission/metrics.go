package mission

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rescuebot"

// Metrics exports mission activity to Prometheus. It is both a Notifier and
// an ActivitySink, so one value can be attached to every mission.
type Metrics struct {
	Commands   *prometheus.CounterVec
	Events     *prometheus.CounterVec
	Missions   *prometheus.CounterVec
	Iterations prometheus.Histogram
	ReturnPath prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands executed by the agent, by command and outcome",
		}, []string{"command", "outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Mission notifications by type",
		}, []string{"type"}),
		Missions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "missions_total",
			Help:      "Finished missions by final state",
		}, []string{"state"}),
		Iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "exploration_iterations",
			Help:      "Exploration iterations per mission",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500},
		}),
		ReturnPath: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "return_path_steps",
			Help:      "Steps on the planned return route",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}

	for _, c := range []prometheus.Collector{m.Commands, m.Events, m.Missions, m.Iterations, m.ReturnPath} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Notify counts the event and, for terminal events, the mission outcome
func (m *Metrics) Notify(ev Event) {
	m.Events.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case EventMissionComplete:
		m.Missions.WithLabelValues(string(StateDone)).Inc()
	case EventMissionFailed:
		m.Missions.WithLabelValues(string(StateFailed)).Inc()
	}
}

// Record counts an executed command
func (m *Metrics) Record(rec ActivityRecord) error {
	outcome := "ok"
	if rec.Err != "" {
		outcome = "error"
	}
	m.Commands.WithLabelValues(rec.Command.Name(), outcome).Inc()
	return nil
}

// ObserveReport records exploration and return route sizes
func (m *Metrics) ObserveReport(r *Report) {
	if r == nil {
		return
	}
	m.Iterations.Observe(float64(r.Exploration.Iterations))
	if n := len(r.ReturnPath); n > 0 {
		m.ReturnPath.Observe(float64(n - 1))
	}
}
