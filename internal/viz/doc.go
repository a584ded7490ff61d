// Package viz is the terminal bench view: a Bubble Tea model that flies the
// attitude loop in real time, draws the airframe and plots attitude against
// setpoint.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset rig, loop and tuning
//	Tab   - Select next tunable parameter
//	Up/K  - Raise parameter 5%
//	Down/J - Lower parameter 5%
//	0-9   - Setpoint to 0..45 degrees
//	-     - Flip setpoint sign
//	Q     - Quit
package viz
