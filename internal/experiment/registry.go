package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/flight"
	"github.com/san-kum/dronectl/internal/integrators"
	"github.com/san-kum/dronectl/internal/metrics"
)

// DefaultEnvelope is the attitude limit, in degrees, scored by the envelope
// metric.
const DefaultEnvelope = 45.0

type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics scores a run of the attitude loop configured by fc.
func (r *Registry) DefaultMetrics(fc flight.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewTrackingError(fc.Schedule.At),
		metrics.NewControlEffort(),
		metrics.NewControlSlew(),
		metrics.NewSaturation(fc.PID.MinOutput, fc.PID.MaxOutput),
		metrics.NewEnvelope(DefaultEnvelope),
	}
}
