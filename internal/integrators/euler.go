package integrators

import "github.com/san-kum/dronectl/internal/dynamo"

// Euler is the explicit first order stepper. It matches how a flight
// controller integrates on hardware and is the cheapest option.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
