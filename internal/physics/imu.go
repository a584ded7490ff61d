package physics

import (
	"math/rand"

	"github.com/san-kum/dronectl/internal/dynamo"
)

// IMU samples a Gimbal state the way a cheap MEMS part would: the
// accelerometer angle is unbiased but noisy and occasionally hit by
// vibration spikes, the gyro is quieter but carries a constant bias.
type IMU struct {
	AccelNoise float64 // std dev, degrees
	GyroNoise  float64 // std dev, degrees per second
	GyroBias   float64 // degrees per second
	SpikeProb  float64 // chance per read of an accelerometer spike
	SpikeAmp   float64 // spike magnitude, degrees

	rng *rand.Rand
}

func NewIMU(seed int64) *IMU {
	return &IMU{rng: rand.New(rand.NewSource(seed))}
}

// Read returns the accelerometer angle and gyro rate for state x.
func (m *IMU) Read(x dynamo.State) (accelAngle, gyroRate float64) {
	accelAngle = x[0] + m.AccelNoise*m.rng.NormFloat64()
	if m.SpikeProb > 0 && m.rng.Float64() < m.SpikeProb {
		if m.rng.Intn(2) == 0 {
			accelAngle += m.SpikeAmp
		} else {
			accelAngle -= m.SpikeAmp
		}
	}
	gyroRate = x[1] + m.GyroBias + m.GyroNoise*m.rng.NormFloat64()
	return accelAngle, gyroRate
}
