// Package dynamo provides the simulation primitives of the attitude bench.
//
// The package defines the fundamental interfaces and types for stepping a
// plant together with its flight loop:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE plants (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Controller]: flight loop interface, called once per tick
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	rig := physics.NewGimbal()
//	sim := dynamo.New(rig, integrators.NewRK4(), loop)
//	result, _ := sim.Run(ctx, dynamo.State{0, 0}, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe, and neither are the controllers
// they drive. Parallel runs each need their own Simulator and Controller.
package dynamo
