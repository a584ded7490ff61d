// Package control provides the feedback controller used by the attitude loop.
//
// [PID] is generic over the floating point type and is driven once per
// control tick with an explicit elapsed time:
//
//	pid, err := control.New(control.Config[float32]{
//		Kp: 4, Ki: 0.5, Kd: 1,
//		MinOutput: -100, MaxOutput: 100,
//	})
//	u := pid.Calculate(setpoint, measured, 10*time.Millisecond)
//
// The output, and the integral contribution on its own, always stay inside
// [MinOutput, MaxOutput]. A PID holds no locks; callers owning it from more
// than one goroutine must serialize access.
package control
