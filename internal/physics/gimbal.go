package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dronectl/internal/dynamo"
)

const (
	DefaultInertia = 1.0
	DefaultDamping = 0.5
)

// Gimbal is one pitch axis of an airframe on a test stand.
// State is [theta, omega], control is [torque].
type Gimbal struct {
	Inertia   float64
	Damping   float64
	Imbalance float64 // gravity torque at 90 degrees from a CG offset
}

func NewGimbal() *Gimbal {
	return &Gimbal{
		Inertia: DefaultInertia,
		Damping: DefaultDamping,
	}
}

func (g *Gimbal) StateDim() int   { return 2 }
func (g *Gimbal) ControlDim() int { return 1 }

func (g *Gimbal) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, omega := x[0], x[1]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}

	gravity := g.Imbalance * math.Sin(theta*math.Pi/180)
	alpha := (torque - g.Damping*omega - gravity) / g.Inertia

	return dynamo.State{omega, alpha}
}

// HoldTorque is the torque that keeps the rig still at theta degrees.
func (g *Gimbal) HoldTorque(theta float64) float64 {
	return g.Imbalance * math.Sin(theta*math.Pi/180)
}

func (g *Gimbal) GetParams() map[string]float64 {
	return map[string]float64{
		"inertia":   g.Inertia,
		"damping":   g.Damping,
		"imbalance": g.Imbalance,
	}
}

func (g *Gimbal) SetParam(name string, value float64) error {
	switch name {
	case "inertia":
		if value <= 0 {
			return fmt.Errorf("%w: inertia must be positive, got %v", dynamo.ErrParameterBounds, value)
		}
		g.Inertia = value
	case "damping":
		if value < 0 {
			return fmt.Errorf("%w: damping must be non-negative, got %v", dynamo.ErrParameterBounds, value)
		}
		g.Damping = value
	case "imbalance":
		g.Imbalance = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
