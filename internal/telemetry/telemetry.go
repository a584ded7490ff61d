// Package telemetry exports the attitude loop's live state as Prometheus
// metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/flight"
)

// Observer is a dynamo.Observer publishing every tick of a loop. Each
// Observer owns its registry, so several can live in one process.
type Observer struct {
	loop     *flight.AttitudeLoop
	registry *prometheus.Registry

	attitude  prometheus.Gauge
	estimate  prometheus.Gauge
	setpoint  prometheus.Gauge
	output    prometheus.Gauge
	terms     *prometheus.GaugeVec
	ticks     prometheus.Counter
	saturated prometheus.Counter
}

func New(loop *flight.AttitudeLoop) *Observer {
	o := &Observer{
		loop:     loop,
		registry: prometheus.NewRegistry(),

		attitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dronectl_attitude_degrees",
			Help: "True attitude of the rig.",
		}),
		estimate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dronectl_estimate_degrees",
			Help: "Attitude estimated by the complementary filter.",
		}),
		setpoint: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dronectl_setpoint_degrees",
			Help: "Commanded attitude.",
		}),
		output: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dronectl_output",
			Help: "Clamped PID output.",
		}),
		terms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dronectl_pid_term",
				Help: "Contribution of each PID term on the last tick.",
			},
			[]string{"term"},
		),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dronectl_ticks_total",
			Help: "Control ticks executed.",
		}),
		saturated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dronectl_saturated_ticks_total",
			Help: "Control ticks whose output sat on a bound.",
		}),
	}

	o.registry.MustRegister(
		o.attitude, o.estimate, o.setpoint, o.output,
		o.terms, o.ticks, o.saturated,
	)
	return o
}

func (o *Observer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	s := o.loop.Last()

	if len(x) > 0 {
		o.attitude.Set(x[0])
	}
	o.estimate.Set(s.Estimate)
	o.setpoint.Set(s.Setpoint)
	if len(u) > 0 {
		o.output.Set(u[0])
	}
	o.terms.WithLabelValues("p").Set(s.Terms.P)
	o.terms.WithLabelValues("i").Set(s.Terms.I)
	o.terms.WithLabelValues("d").Set(s.Terms.D)

	o.ticks.Inc()
	if o.loop.Saturated() {
		o.saturated.Inc()
	}
}

func (o *Observer) Registry() *prometheus.Registry { return o.registry }

// Handler serves the registry in the Prometheus text format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
