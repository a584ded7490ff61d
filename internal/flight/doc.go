// Package flight closes the attitude loop on the bench.
//
// [AttitudeLoop] is a [dynamo.Controller]: every tick it reads the [physics.IMU],
// fuses the readings with an [estimate.Complementary] filter and drives a
// [control.PID] toward the setpoint given by a [Schedule]. The tick length
// is derived from consecutive Compute times, so the first tick runs with a
// zero dt.
//
//	loop, err := flight.NewAttitudeLoop(flight.DefaultConfig(), physics.NewIMU(seed))
//	sim := dynamo.New(physics.NewGimbal(), integrators.NewRK4(), loop)
//	sim.AddObserver(flight.NewRecorder(loop))
package flight
