package metrics

import "github.com/san-kum/dronectl/internal/dynamo"

// Saturation is the fraction of ticks whose command sat on an output bound.
type Saturation struct {
	name      string
	min, max  float64
	saturated int
	samples   int
}

func NewSaturation(min, max float64) *Saturation {
	return &Saturation{name: "saturation", min: min, max: max}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	for _, val := range u {
		if val <= s.min || val >= s.max {
			s.saturated++
			break
		}
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
