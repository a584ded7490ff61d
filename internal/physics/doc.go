// Package physics provides the simulated hardware of the attitude bench.
//
//   - [Gimbal]: single-axis pitch rig implementing [dynamo.System]
//   - [IMU]: seeded accelerometer/gyroscope model reading a [Gimbal] state
//
// Angles are in degrees and rates in degrees per second throughout, the
// same units the flight loop works in.
//
// Gimbal also implements [dynamo.Configurable] so the live view can change
// the rig while a loop is flying it:
//
//	rig := physics.NewGimbal()
//	_ = rig.SetParam("imbalance", 4)
package physics
