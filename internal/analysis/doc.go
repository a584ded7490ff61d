// Package analysis scores recorded attitude traces the way a bench engineer
// reads a scope: step response figures per setpoint change and the
// dominant oscillation frequency of the tracking error.
//
//	segs := analysis.Segments(series["setpoint"])
//	for _, s := range segs {
//		stats, err := analysis.StepResponse(times[s.Start:s.End], theta[s.Start:s.End], s.To)
//		...
//	}
package analysis
