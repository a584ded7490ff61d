package estimate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// ErrInvalidAlpha is returned for a blend weight outside [0, 1].
var ErrInvalidAlpha = errors.New("estimate: alpha must be within [0, 1]")

// Complementary is a single-axis complementary filter. It is not safe for
// concurrent use.
type Complementary[T constraints.Float] struct {
	alpha T
	angle T
}

func NewComplementary[T constraints.Float](alpha T) (*Complementary[T], error) {
	if math.IsNaN(float64(alpha)) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	return &Complementary[T]{alpha: alpha}, nil
}

// Update integrates gyroRate over dt from the current estimate, blends the
// prediction with accelAngle and returns the new estimate. A negative dt
// integrates nothing.
func (c *Complementary[T]) Update(accelAngle, gyroRate T, dt time.Duration) T {
	seconds := T(max(dt, 0).Seconds())
	predicted := c.angle + gyroRate*seconds
	c.angle = c.alpha*predicted + (1-c.alpha)*accelAngle
	return c.angle
}

func (c *Complementary[T]) Angle() T { return c.angle }

func (c *Complementary[T]) Alpha() T { return c.alpha }

// Reset re-seeds the estimate, typically with a trusted accelerometer angle
// taken while the airframe is at rest.
func (c *Complementary[T]) Reset(angle T) {
	c.angle = angle
}

// AlphaFromTimeConstant returns tau/(tau+dt), the weight that gives the
// filter a crossover time constant of tau at a fixed tick of dt.
func AlphaFromTimeConstant[T constraints.Float](tau, dt time.Duration) T {
	if tau <= 0 {
		return 0
	}
	if dt <= 0 {
		return 1
	}
	t := T(tau.Seconds())
	return t / (t + T(dt.Seconds()))
}
