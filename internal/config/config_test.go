package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dronectl/internal/control"
	"github.com/san-kum/dronectl/internal/flight"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Positive(t, cfg.Dt)
	assert.Positive(t, cfg.Duration)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero inertia", func(c *Config) { c.Gimbal.Inertia = 0 }},
		{"spike probability", func(c *Config) { c.IMU.SpikeProb = 1.5 }},
		{"alpha", func(c *Config) { c.Filter.Alpha = 1.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	t.Run("inverted bounds", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PID.MinOutput, cfg.PID.MaxOutput = 10, -10
		assert.ErrorIs(t, cfg.Validate(), control.ErrInvalidConfig)
	})

	t.Run("anti-windup mode", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PID.AntiWindup = "freeze"
		assert.ErrorIs(t, cfg.Validate(), control.ErrInvalidConfig)
	})
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	doc := `
dt: 0.005
pid:
  kp: 6
  anti_windup: accumulator
filter:
  alpha: 0.95
setpoints:
  - {at: 5, angle: -10}
  - {at: 0, angle: 20}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.005, cfg.Dt)
	assert.Equal(t, DefaultDuration, cfg.Duration)
	assert.Equal(t, 6.0, cfg.PID.Kp)
	assert.Equal(t, DefaultKi, cfg.PID.Ki)

	fc, err := cfg.FlightConfig()
	require.NoError(t, err)
	assert.Equal(t, control.ClampAccumulator, fc.PID.AntiWindup)
	assert.Equal(t, 0.95, fc.Alpha)
	assert.Equal(t, 20.0, fc.Schedule.At(1))
	assert.Equal(t, -10.0, fc.Schedule.At(6))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dt: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("tilt")
	require.NotNil(t, cfg)

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFlightConfigDefaultsToLevel(t *testing.T) {
	fc, err := DefaultConfig().FlightConfig()
	require.NoError(t, err)
	assert.Equal(t, flight.Constant(0), fc.Schedule)
	assert.Equal(t, control.ClampTerm, fc.PID.AntiWindup)
}

func TestBuilders(t *testing.T) {
	cfg := GetPreset("imbalanced")
	cfg.Gimbal.InitAngle = 3
	cfg.Gimbal.InitRate = -1

	g := cfg.NewGimbal()
	assert.Equal(t, 8.0, g.Imbalance)
	assert.Equal(t, []float64{3, -1}, cfg.InitState())

	imu := cfg.NewIMU()
	assert.Equal(t, cfg.IMU.AccelNoise, imu.AccelNoise)
	assert.Equal(t, cfg.IMU.GyroNoise, imu.GyroNoise)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	assert.IsNonDecreasing(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("tilt")
	a.Setpoints[1].Angle = 99
	a.PID.Kp = 99

	b := GetPreset("tilt")
	assert.Equal(t, 15.0, b.Setpoints[1].Angle)
	assert.Equal(t, DefaultKp, b.PID.Kp)

	assert.Nil(t, GetPreset("nonexistent"))
}
