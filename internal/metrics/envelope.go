package metrics

import (
	"math"

	"github.com/san-kum/dronectl/internal/dynamo"
)

// Envelope is the fraction of ticks the attitude stayed within ±limit
// degrees. 1.0 means the airframe never left the envelope.
type Envelope struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewEnvelope(limit float64) *Envelope {
	return &Envelope{
		name:  "envelope",
		limit: limit,
	}
}

func (e *Envelope) Name() string {
	return e.name
}

func (e *Envelope) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e.samples++
	if len(x) > 0 && math.Abs(x[0]) > e.limit {
		e.violations++
	}
}

func (e *Envelope) Value() float64 {
	if e.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(e.violations)/float64(e.samples)
}

func (e *Envelope) Reset() {
	e.violations = 0
	e.samples = 0
}
