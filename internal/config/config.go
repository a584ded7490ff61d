package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dronectl/internal/control"
	"github.com/san-kum/dronectl/internal/flight"
	"github.com/san-kum/dronectl/internal/physics"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 10.0
	DefaultKp        = 4.0
	DefaultKi        = 0.5
	DefaultKd        = 1.0
	DefaultMaxOutput = 50.0
	DefaultAlpha     = 0.98
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Integrator string          `yaml:"integrator"`
	Dt         float64         `yaml:"dt"`
	Duration   float64         `yaml:"duration"`
	Seed       int64           `yaml:"seed"`
	Gimbal     GimbalConfig    `yaml:"gimbal"`
	IMU        IMUConfig       `yaml:"imu"`
	PID        PIDConfig       `yaml:"pid"`
	Filter     FilterConfig    `yaml:"filter"`
	Setpoints  flight.Schedule `yaml:"setpoints"`
}

type GimbalConfig struct {
	Inertia   float64 `yaml:"inertia"`
	Damping   float64 `yaml:"damping"`
	Imbalance float64 `yaml:"imbalance"`
	InitAngle float64 `yaml:"init_angle"`
	InitRate  float64 `yaml:"init_rate"`
}

type IMUConfig struct {
	AccelNoise float64 `yaml:"accel_noise"`
	GyroNoise  float64 `yaml:"gyro_noise"`
	GyroBias   float64 `yaml:"gyro_bias"`
	SpikeProb  float64 `yaml:"spike_prob"`
	SpikeAmp   float64 `yaml:"spike_amp"`
}

type PIDConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	MinOutput  float64 `yaml:"min_output"`
	MaxOutput  float64 `yaml:"max_output"`
	AntiWindup string  `yaml:"anti_windup,omitempty"`
}

type FilterConfig struct {
	Alpha        float64 `yaml:"alpha"`
	SeedEstimate bool    `yaml:"seed_estimate"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Gimbal: GimbalConfig{
			Inertia: physics.DefaultInertia,
			Damping: physics.DefaultDamping,
		},
		PID: PIDConfig{
			Kp:        DefaultKp,
			Ki:        DefaultKi,
			Kd:        DefaultKd,
			MinOutput: -DefaultMaxOutput,
			MaxOutput: DefaultMaxOutput,
		},
		Filter: FilterConfig{Alpha: DefaultAlpha},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be handed out and modified.
func (c *Config) Clone() *Config {
	out := *c
	out.Setpoints = flight.NewSchedule(c.Setpoints...)
	return &out
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalid, c.Duration)
	}
	if c.Gimbal.Inertia <= 0 {
		return fmt.Errorf("%w: gimbal inertia must be positive, got %v", ErrInvalid, c.Gimbal.Inertia)
	}
	if c.IMU.SpikeProb < 0 || c.IMU.SpikeProb > 1 {
		return fmt.Errorf("%w: spike_prob must be in [0, 1], got %v", ErrInvalid, c.IMU.SpikeProb)
	}
	fc, err := c.FlightConfig()
	if err != nil {
		return err
	}
	if err := fc.PID.Validate(); err != nil {
		return err
	}
	if c.Filter.Alpha < 0 || c.Filter.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in [0, 1], got %v", ErrInvalid, c.Filter.Alpha)
	}
	return nil
}

// FlightConfig translates the file layout into the attitude loop's config.
// An empty setpoint list holds level flight.
func (c *Config) FlightConfig() (flight.Config, error) {
	mode, err := control.ParseAntiWindup(c.PID.AntiWindup)
	if err != nil {
		return flight.Config{}, err
	}
	sched := flight.NewSchedule(c.Setpoints...)
	if len(sched) == 0 {
		sched = flight.Constant(0)
	}
	return flight.Config{
		PID: control.Config[float64]{
			Kp:         c.PID.Kp,
			Ki:         c.PID.Ki,
			Kd:         c.PID.Kd,
			MinOutput:  c.PID.MinOutput,
			MaxOutput:  c.PID.MaxOutput,
			AntiWindup: mode,
		},
		Alpha:        c.Filter.Alpha,
		Schedule:     sched,
		SeedEstimate: c.Filter.SeedEstimate,
	}, nil
}

func (c *Config) NewGimbal() *physics.Gimbal {
	return &physics.Gimbal{
		Inertia:   c.Gimbal.Inertia,
		Damping:   c.Gimbal.Damping,
		Imbalance: c.Gimbal.Imbalance,
	}
}

func (c *Config) NewIMU() *physics.IMU {
	imu := physics.NewIMU(c.Seed)
	imu.AccelNoise = c.IMU.AccelNoise
	imu.GyroNoise = c.IMU.GyroNoise
	imu.GyroBias = c.IMU.GyroBias
	imu.SpikeProb = c.IMU.SpikeProb
	imu.SpikeAmp = c.IMU.SpikeAmp
	return imu
}

func (c *Config) InitState() []float64 {
	return []float64{c.Gimbal.InitAngle, c.Gimbal.InitRate}
}
