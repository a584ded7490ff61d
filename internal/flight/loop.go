package flight

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/dronectl/internal/control"
	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/estimate"
	"github.com/san-kum/dronectl/internal/physics"
)

type Config struct {
	PID      control.Config[float64]
	Alpha    float64
	Schedule Schedule
	// SeedEstimate starts the filter from the first accelerometer reading
	// instead of zero.
	SeedEstimate bool
}

func DefaultConfig() Config {
	return Config{
		PID: control.Config[float64]{
			Kp: 4, Ki: 0.5, Kd: 1,
			MinOutput: -50, MaxOutput: 50,
		},
		Alpha:    0.98,
		Schedule: Constant(0),
	}
}

// Sample is what the loop saw and did on one tick.
type Sample struct {
	Time     float64
	Setpoint float64
	Accel    float64
	Gyro     float64
	Estimate float64
	Output   float64
	Terms    control.Terms[float64]
}

type AttitudeLoop struct {
	cfg    Config
	imu    *physics.IMU
	pid    *control.PID[float64]
	filter *estimate.Complementary[float64]
	prevT  float64
	ticked bool
	last   Sample
}

func NewAttitudeLoop(cfg Config, imu *physics.IMU) (*AttitudeLoop, error) {
	pid, err := control.New(cfg.PID)
	if err != nil {
		return nil, err
	}
	filter, err := estimate.NewComplementary(cfg.Alpha)
	if err != nil {
		return nil, err
	}
	cfg.Schedule = NewSchedule(cfg.Schedule...)
	return &AttitudeLoop{cfg: cfg, imu: imu, pid: pid, filter: filter}, nil
}

func (l *AttitudeLoop) Compute(x dynamo.State, t float64) dynamo.Control {
	var dt time.Duration
	if l.ticked {
		dt = tick(t - l.prevT)
	}

	accel, gyro := l.imu.Read(x)
	if !l.ticked && l.cfg.SeedEstimate {
		l.filter.Reset(accel)
	}
	l.prevT, l.ticked = t, true

	est := l.filter.Update(accel, gyro, dt)
	sp := l.cfg.Schedule.At(t)
	out := l.pid.Calculate(sp, est, dt)

	l.last = Sample{
		Time:     t,
		Setpoint: sp,
		Accel:    accel,
		Gyro:     gyro,
		Estimate: est,
		Output:   out,
		Terms:    l.pid.Terms(),
	}
	return dynamo.Control{out}
}

// Reset re-arms the loop: PID history, filter estimate and tick clock.
func (l *AttitudeLoop) Reset() {
	l.pid.Reset()
	l.filter.Reset(0)
	l.prevT, l.ticked = 0, false
	l.last = Sample{}
}

func (l *AttitudeLoop) Last() Sample { return l.last }

func (l *AttitudeLoop) Estimate() float64 { return l.filter.Angle() }

func (l *AttitudeLoop) Config() Config { return l.cfg }

// Saturated reports whether the last output sat on an output bound.
func (l *AttitudeLoop) Saturated() bool {
	return l.last.Output <= l.cfg.PID.MinOutput || l.last.Output >= l.cfg.PID.MaxOutput
}

func (l *AttitudeLoop) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":         l.cfg.PID.Kp,
		"ki":         l.cfg.PID.Ki,
		"kd":         l.cfg.PID.Kd,
		"min_output": l.cfg.PID.MinOutput,
		"max_output": l.cfg.PID.MaxOutput,
		"alpha":      l.cfg.Alpha,
		"setpoint":   l.cfg.Schedule.At(l.prevT),
	}
}

// SetParam retunes the loop in flight. Gain and bound changes rebuild the
// PID, which drops its integral history; an alpha change keeps the current
// estimate. Setting "setpoint" replaces the schedule with a constant.
func (l *AttitudeLoop) SetParam(name string, value float64) error {
	pidCfg := l.cfg.PID
	switch name {
	case "kp":
		pidCfg.Kp = value
	case "ki":
		pidCfg.Ki = value
	case "kd":
		pidCfg.Kd = value
	case "min_output":
		pidCfg.MinOutput = value
	case "max_output":
		pidCfg.MaxOutput = value
	case "alpha":
		filter, err := estimate.NewComplementary(value)
		if err != nil {
			return err
		}
		filter.Reset(l.filter.Angle())
		l.filter, l.cfg.Alpha = filter, value
		return nil
	case "setpoint":
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: setpoint %v", dynamo.ErrParameterBounds, value)
		}
		l.cfg.Schedule = Constant(value)
		return nil
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}

	pid, err := control.New(pidCfg)
	if err != nil {
		return err
	}
	l.pid, l.cfg.PID = pid, pidCfg
	return nil
}

// SetSchedule replaces the setpoint schedule without touching loop state.
func (l *AttitudeLoop) SetSchedule(s Schedule) {
	l.cfg.Schedule = NewSchedule(s...)
}

func tick(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
