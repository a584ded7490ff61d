package flight

import "sort"

// Step moves the setpoint to Angle degrees at time At seconds.
type Step struct {
	At    float64 `yaml:"at" json:"at"`
	Angle float64 `yaml:"angle" json:"angle"`
}

// Schedule is a piecewise constant setpoint, sorted by Step.At.
type Schedule []Step

func NewSchedule(steps ...Step) Schedule {
	s := make(Schedule, len(steps))
	copy(s, steps)
	sort.SliceStable(s, func(i, j int) bool { return s[i].At < s[j].At })
	return s
}

func Constant(angle float64) Schedule {
	return Schedule{{At: 0, Angle: angle}}
}

// At returns the angle of the last step starting at or before t, or 0 when
// no step has started yet.
func (s Schedule) At(t float64) float64 {
	i := sort.Search(len(s), func(i int) bool { return s[i].At > t })
	if i == 0 {
		return 0
	}
	return s[i-1].Angle
}
