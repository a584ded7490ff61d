package flight

import "github.com/san-kum/dronectl/internal/dynamo"

// SeriesNames lists the columns a Recorder produces, in storage order.
var SeriesNames = []string{"setpoint", "accel", "gyro", "estimate", "p", "i", "d"}

// Recorder is a dynamo.Observer that keeps one Sample per tick of a loop.
type Recorder struct {
	loop    *AttitudeLoop
	samples []Sample
}

func NewRecorder(loop *AttitudeLoop) *Recorder {
	return &Recorder{loop: loop}
}

func (r *Recorder) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	r.samples = append(r.samples, r.loop.Last())
}

func (r *Recorder) Samples() []Sample { return r.samples }

func (r *Recorder) Reset() { r.samples = r.samples[:0] }

// Series returns the recorded samples keyed by SeriesNames.
func (r *Recorder) Series() map[string][]float64 {
	out := make(map[string][]float64, len(SeriesNames))
	for _, name := range SeriesNames {
		out[name] = make([]float64, len(r.samples))
	}
	for i, s := range r.samples {
		out["setpoint"][i] = s.Setpoint
		out["accel"][i] = s.Accel
		out["gyro"][i] = s.Gyro
		out["estimate"][i] = s.Estimate
		out["p"][i] = s.Terms.P
		out["i"][i] = s.Terms.I
		out["d"][i] = s.Terms.D
	}
	return out
}
