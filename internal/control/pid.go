package control

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// ErrInvalidConfig is returned by New when gains or output bounds are unusable.
var ErrInvalidConfig = errors.New("control: invalid configuration")

// AntiWindup selects how the integral term is held back while saturated.
type AntiWindup int

const (
	// ClampTerm clamps Ki*integral to the output bounds but lets the raw
	// accumulator keep growing.
	ClampTerm AntiWindup = iota
	// ClampAccumulator also pulls the accumulator back to the value that
	// produces the clamped contribution, so it unwinds immediately.
	ClampAccumulator
)

func (a AntiWindup) String() string {
	switch a {
	case ClampTerm:
		return "term"
	case ClampAccumulator:
		return "accumulator"
	}
	return fmt.Sprintf("AntiWindup(%d)", int(a))
}

// ParseAntiWindup maps "term" and "accumulator" to their modes.
// The empty string selects ClampTerm.
func ParseAntiWindup(s string) (AntiWindup, error) {
	switch s {
	case "", "term":
		return ClampTerm, nil
	case "accumulator":
		return ClampAccumulator, nil
	}
	return ClampTerm, fmt.Errorf("%w: unknown anti-windup mode %q", ErrInvalidConfig, s)
}

type Config[T constraints.Float] struct {
	Kp, Ki, Kd T
	MinOutput  T
	MaxOutput  T
	AntiWindup AntiWindup
}

// Validate reports ErrInvalidConfig for non-finite values or inverted bounds.
func (c Config[T]) Validate() error {
	for name, v := range map[string]T{
		"kp": c.Kp, "ki": c.Ki, "kd": c.Kd,
		"min_output": c.MinOutput, "max_output": c.MaxOutput,
	} {
		if !finite(v) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
		}
	}
	if c.MinOutput > c.MaxOutput {
		return fmt.Errorf("%w: min output %v exceeds max output %v", ErrInvalidConfig, c.MinOutput, c.MaxOutput)
	}
	if c.AntiWindup != ClampTerm && c.AntiWindup != ClampAccumulator {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.AntiWindup)
	}
	return nil
}

// Terms holds the individual contributions of one Calculate call.
type Terms[T constraints.Float] struct {
	P, I, D T
}

type PID[T constraints.Float] struct {
	cfg         Config[T]
	integral    T
	lastError   T
	initialized bool
	terms       Terms[T]
}

func New[T constraints.Float](cfg Config[T]) (*PID[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PID[T]{cfg: cfg}, nil
}

// Calculate advances the controller by one tick of length dt and returns the
// clamped output. The first call after New or Reset has no derivative
// contribution; a zero or negative dt suppresses the derivative as well.
// A non-finite error, from a NaN reading or float overflow, leaves the
// integral and derivative history untouched.
func (p *PID[T]) Calculate(setpoint, measured T, dt time.Duration) T {
	err := setpoint - measured
	seconds := T(dt.Seconds())
	valid := finite(err)

	if valid && !p.initialized {
		p.lastError = err
		p.initialized = true
	}

	pTerm := p.cfg.Kp * err

	if valid {
		if next := p.integral + err*seconds; finite(next) {
			p.integral = next
		}
	}
	raw := p.cfg.Ki * p.integral
	iTerm := clamp(raw, p.cfg.MinOutput, p.cfg.MaxOutput)
	if p.cfg.AntiWindup == ClampAccumulator && iTerm != raw && p.cfg.Ki != 0 {
		p.integral = iTerm / p.cfg.Ki
	}

	var dTerm T
	if valid {
		if seconds > 0 {
			dTerm = p.cfg.Kd * (err - p.lastError) / seconds
		}
		p.lastError = err
	}

	p.terms = Terms[T]{P: pTerm, I: iTerm, D: dTerm}

	out := pTerm + iTerm + dTerm
	if math.IsNaN(float64(out)) {
		// opposing infinite terms, or a NaN reading
		out = iTerm
	}
	return clamp(out, p.cfg.MinOutput, p.cfg.MaxOutput)
}

// Reset discards the integral and derivative history. The next Calculate
// behaves exactly like the first call on a fresh controller.
func (p *PID[T]) Reset() {
	p.integral = 0
	p.lastError = 0
	p.initialized = false
	p.terms = Terms[T]{}
}

func (p *PID[T]) Config() Config[T] { return p.cfg }

// Integral returns the raw error*seconds accumulator.
func (p *PID[T]) Integral() T { return p.integral }

// Terms returns the contributions computed by the last Calculate.
func (p *PID[T]) Terms() Terms[T] { return p.terms }

func clamp[T constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func finite[T constraints.Float](v T) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
