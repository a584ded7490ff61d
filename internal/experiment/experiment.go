package experiment

import (
	"context"
	"errors"

	"github.com/san-kum/dronectl/internal/config"
	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/flight"
	"github.com/san-kum/dronectl/internal/physics"
)

var ErrUnknownIntegrator = errors.New("experiment: unknown integrator")

// Experiment is one bench run: a gimbal flown by an attitude loop, with the
// loop's per-tick samples recorded alongside the plant state.
type Experiment struct {
	cfg       *config.Config
	gimbal    *physics.Gimbal
	integ     dynamo.Integrator
	loop      *flight.AttitudeLoop
	recorder  *flight.Recorder
	simulator *dynamo.Simulator
}

func New(cfg *config.Config) (*Experiment, error) {
	return NewWithRegistry(cfg, NewRegistry())
}

func NewWithRegistry(cfg *config.Config, reg *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	fc, err := cfg.FlightConfig()
	if err != nil {
		return nil, err
	}
	loop, err := flight.NewAttitudeLoop(fc, cfg.NewIMU())
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:      cfg.Clone(),
		gimbal:   cfg.NewGimbal(),
		integ:    integ,
		loop:     loop,
		recorder: flight.NewRecorder(loop),
	}
	e.simulator = dynamo.New(e.gimbal, integ, loop)
	for _, m := range reg.DefaultMetrics(fc) {
		e.simulator.AddMetric(m)
	}
	e.simulator.AddObserver(e.recorder)
	return e, nil
}

// Run flies the configured scenario. Loop series are merged into
// Result.Series under flight.SeriesNames.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	e.loop.Reset()
	e.recorder.Reset()

	simCfg := dynamo.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Seed:          e.cfg.Seed,
		ValidateState: true,
	}

	result, err := e.simulator.Run(ctx, e.cfg.InitState(), simCfg)
	if result != nil {
		for name, series := range e.recorder.Series() {
			result.Series[name] = series
		}
	}
	return result, err
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Gimbal() *physics.Gimbal { return e.gimbal }

func (e *Experiment) Integrator() dynamo.Integrator { return e.integ }

func (e *Experiment) Loop() *flight.AttitudeLoop { return e.loop }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *dynamo.Simulator { return e.simulator }
