package metrics

import (
	"math"

	"github.com/san-kum/dronectl/internal/dynamo"
)

// ControlEffort is the mean absolute actuator command per tick.
type ControlEffort struct {
	total float64
	ticks int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.total += l1(u)
	c.ticks++
}

func (c *ControlEffort) Value() float64 { return mean(c.total, c.ticks) }

func (c *ControlEffort) Reset() { *c = ControlEffort{} }

// ControlSlew is the mean rate of change of the command, in units per
// second. Derivative noise shows up here well before it moves the attitude.
type ControlSlew struct {
	prev  dynamo.Control
	prevT float64
	seen  bool
	total float64
	ticks int
}

func NewControlSlew() *ControlSlew { return &ControlSlew{} }

func (c *ControlSlew) Name() string { return "control_slew" }

func (c *ControlSlew) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if c.seen && t > c.prevT {
		d := 0.0
		for i := 0; i < len(u) && i < len(c.prev); i++ {
			d += math.Abs(u[i] - c.prev[i])
		}
		c.total += d / (t - c.prevT)
		c.ticks++
	}
	c.prev = append(c.prev[:0], u...)
	c.prevT, c.seen = t, true
}

func (c *ControlSlew) Value() float64 { return mean(c.total, c.ticks) }

func (c *ControlSlew) Reset() {
	c.prev = c.prev[:0]
	c.prevT, c.seen = 0, false
	c.total, c.ticks = 0, 0
}

func l1(u dynamo.Control) float64 {
	sum := 0.0
	for _, v := range u {
		sum += math.Abs(v)
	}
	return sum
}

func mean(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
