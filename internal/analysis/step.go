package analysis

import (
	"errors"
	"fmt"
	"math"
)

// SettlingBand is the settling tolerance as a fraction of the step size.
const SettlingBand = 0.02

var ErrNoStep = errors.New("analysis: no step to measure")

type StepStats struct {
	From, To float64
	// RiseTime is 10% to 90% of the step in seconds, NaN if never reached.
	RiseTime float64
	// Overshoot is the peak excursion past To in percent of the step.
	Overshoot float64
	// SettlingTime is when the response last entered the band around To,
	// relative to the first sample. NaN if it had not settled by the end.
	SettlingTime float64
	FinalError   float64
}

// StepResponse measures values moving from values[0] toward target.
func StepResponse(times, values []float64, target float64) (StepStats, error) {
	if len(times) != len(values) {
		return StepStats{}, fmt.Errorf("analysis: %d times for %d values", len(times), len(values))
	}
	if len(values) < 2 {
		return StepStats{}, ErrTooShort
	}

	from := values[0]
	delta := target - from
	if delta == 0 {
		return StepStats{}, ErrNoStep
	}

	t0 := times[0]
	stats := StepStats{
		From:         from,
		To:           target,
		RiseTime:     math.NaN(),
		SettlingTime: math.NaN(),
		FinalError:   target - values[len(values)-1],
	}

	t10, t90 := math.NaN(), math.NaN()
	peak := 0.0
	for i, v := range values {
		p := (v - from) / delta
		if math.IsNaN(t10) && p >= 0.1 {
			t10 = times[i]
		}
		if math.IsNaN(t90) && p >= 0.9 {
			t90 = times[i]
		}
		peak = max(peak, p)
	}
	if !math.IsNaN(t90) {
		stats.RiseTime = t90 - t10
	}
	stats.Overshoot = max(0, peak-1) * 100

	band := SettlingBand * math.Abs(delta)
	last := -1
	for i, v := range values {
		if math.Abs(v-target) > band {
			last = i
		}
	}
	switch {
	case last == -1:
		stats.SettlingTime = 0
	case last < len(values)-1:
		stats.SettlingTime = times[last+1] - t0
	}
	return stats, nil
}

// Segment is a run of samples sharing one setpoint.
type Segment struct {
	Start, End int
	To         float64
}

// Segments splits a setpoint trace at every change.
func Segments(setpoints []float64) []Segment {
	var segs []Segment
	start := 0
	for i := 1; i <= len(setpoints); i++ {
		if i == len(setpoints) || setpoints[i] != setpoints[start] {
			segs = append(segs, Segment{Start: start, End: i, To: setpoints[start]})
			start = i
		}
	}
	return segs
}
