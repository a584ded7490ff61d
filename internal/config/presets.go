package config

import (
	"sort"

	"github.com/san-kum/dronectl/internal/flight"
)

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

// Presets are named bench scenarios. Each is a full config built on top of
// DefaultConfig.
var Presets = map[string]*Config{
	"hover": preset(func(c *Config) {
		c.IMU = IMUConfig{AccelNoise: 0.5, GyroNoise: 0.1, GyroBias: 0.2}
		c.Gimbal.InitAngle = 5
		c.Filter.SeedEstimate = true
	}),
	"step": preset(func(c *Config) {
		c.Setpoints = flight.Constant(10)
	}),
	"noisy": preset(func(c *Config) {
		c.Duration = 20
		c.IMU = IMUConfig{AccelNoise: 2, GyroNoise: 0.5, GyroBias: 0.5, SpikeProb: 0.02, SpikeAmp: 30}
		c.Setpoints = flight.Constant(10)
	}),
	"windup": preset(func(c *Config) {
		c.Duration = 20
		c.PID.Ki = 4
		c.PID.MinOutput, c.PID.MaxOutput = -15, 15
		c.Setpoints = flight.Schedule{{At: 0, Angle: 45}, {At: 10, Angle: 0}}
	}),
	"tilt": preset(func(c *Config) {
		c.Duration = 20
		c.IMU = IMUConfig{AccelNoise: 0.5, GyroNoise: 0.1}
		c.Setpoints = flight.Schedule{
			{At: 0, Angle: 0},
			{At: 2, Angle: 15},
			{At: 8, Angle: -15},
			{At: 14, Angle: 0},
		}
	}),
	"imbalanced": preset(func(c *Config) {
		c.Duration = 20
		c.Gimbal.Imbalance = 8
		c.IMU = IMUConfig{AccelNoise: 0.5, GyroNoise: 0.1}
		c.Setpoints = flight.Constant(20)
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
