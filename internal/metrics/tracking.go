package metrics

import (
	"math"

	"github.com/san-kum/dronectl/internal/dynamo"
)

// TrackingError is the RMS difference between the reference and the true
// attitude x[0]. Ticks before Skip seconds are ignored so the initial
// transient can be excluded.
type TrackingError struct {
	name      string
	reference func(t float64) float64
	Skip      float64
	sumSq     float64
	samples   int
}

func NewTrackingError(reference func(t float64) float64) *TrackingError {
	return &TrackingError{
		name:      "tracking_rms",
		reference: reference,
	}
}

func (m *TrackingError) Name() string { return m.name }

func (m *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if t < m.Skip || len(x) == 0 {
		return
	}
	e := m.reference(t) - x[0]
	m.sumSq += e * e
	m.samples++
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.samples = 0
}
