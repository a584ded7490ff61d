package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/experiment"
	"github.com/san-kum/dronectl/internal/flight"
	"github.com/san-kum/dronectl/internal/physics"
)

const (
	canvasWidth     = 36
	canvasHeight    = 10
	historyCapacity = 300
	frameRate       = 60
	setpointStep    = 5.0
)

type TickMsg time.Time

type tunable struct {
	name    string
	target  dynamo.Configurable
	initial float64
}

func (p tunable) value() float64 { return p.target.GetParams()[p.name] }

// Model flies one experiment's gimbal and loop in wall-clock time.
type Model struct {
	title         string
	gimbal        *physics.Gimbal
	loop          *flight.AttitudeLoop
	integrator    dynamo.Integrator
	observers     []dynamo.Observer
	state         dynamo.State
	initialState  dynamo.State
	initialSched  flight.Schedule
	u             dynamo.Control
	t, dt         float64
	ticks         int
	stepsPerFrame int
	running       bool
	status        string
	canvas        *Canvas
	attitude      []float64
	setpoint      []float64
	params        []tunable
	selected      int
}

// NewModel prepares a live view of exp. Observers see every tick, the same
// way they would under dynamo.Simulator.
func NewModel(exp *experiment.Experiment, title string, observers ...dynamo.Observer) Model {
	cfg := exp.Config()
	loop, gimbal := exp.Loop(), exp.Gimbal()

	params := make([]tunable, 0, 6)
	for _, name := range []string{"kp", "ki", "kd", "alpha"} {
		params = append(params, tunable{name: name, target: loop})
	}
	for _, name := range []string{"damping", "imbalance"} {
		params = append(params, tunable{name: name, target: gimbal})
	}
	for i := range params {
		params[i].initial = params[i].value()
	}

	x0 := dynamo.State(cfg.InitState())
	return Model{
		title:         title,
		gimbal:        gimbal,
		loop:          loop,
		integrator:    exp.Integrator(),
		observers:     observers,
		state:         x0.Clone(),
		initialState:  x0,
		initialSched:  loop.Config().Schedule,
		u:             make(dynamo.Control, gimbal.ControlDim()),
		dt:            cfg.Dt,
		stepsPerFrame: max(1, int(math.Round(1/(frameRate*cfg.Dt)))),
		running:       true,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		attitude:      make([]float64, 0, historyCapacity),
		setpoint:      make([]float64, 0, historyCapacity),
		params:        params,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(m.params)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "-":
			m.setSetpoint(-m.loop.GetParams()["setpoint"])
		case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.setSetpoint(float64(key[0]-'0') * setpointStep)
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerFrame && m.running; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.u = m.loop.Compute(m.state, m.t)
	for _, o := range m.observers {
		o.OnStep(m.state, m.u, m.t)
	}

	next := m.integrator.Step(m.gimbal, m.state, m.u, m.t, m.dt)
	if !next.IsValid() {
		m.running = false
		m.status = fmt.Sprintf("diverged at t=%.2fs", m.t)
		return
	}
	m.state = next
	m.ticks++
	m.t = float64(m.ticks) * m.dt

	m.attitude = pushHistory(m.attitude, m.state[0])
	m.setpoint = pushHistory(m.setpoint, m.loop.Last().Setpoint)
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) adjustParam(factor float64) {
	p := m.params[m.selected]
	val := p.value()
	next := val * factor
	if val == 0 && factor > 1 {
		next = 0.1
	}
	if err := p.target.SetParam(p.name, next); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) setSetpoint(angle float64) {
	if err := m.loop.SetParam("setpoint", angle); err != nil {
		m.status = err.Error()
	}
}

// reset puts the rig back to its initial state and undoes all tuning.
func (m *Model) reset() {
	m.status = ""
	for _, p := range m.params {
		if err := p.target.SetParam(p.name, p.initial); err != nil {
			m.status = err.Error()
		}
	}
	m.loop.SetSchedule(m.initialSched)
	m.loop.Reset()

	m.state = m.initialState.Clone()
	m.u = make(dynamo.Control, m.gimbal.ControlDim())
	m.t, m.ticks = 0, 0
	m.attitude = m.attitude[:0]
	m.setpoint = m.setpoint[:0]
	m.running = true
}

func (m Model) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.status != "":
		s.WriteString(statusError.Render(m.status))
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING"))
	default:
		s.WriteString(statusPaused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	last := m.loop.Last()
	row := func(label, format string, v float64) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, v)) + "\n")
	}
	row("Time", "%.2fs", m.t)
	row("Attitude", "%+7.2f°", m.state[0])
	row("Estimate", "%+7.2f°", last.Estimate)
	row("Setpoint", "%+7.2f°", last.Setpoint)
	row("Output", "%+7.2f", last.Output)
	s.WriteString(labelStyle.Render("P / I / D") +
		valueStyle.Render(fmt.Sprintf("%+.1f / %+.1f / %+.1f", last.Terms.P, last.Terms.I, last.Terms.D)) + "\n")

	s.WriteString("\nTUNING\n")
	for i, p := range m.params {
		val := p.value()
		ratio := 0.5
		if p.initial != 0 {
			ratio = val / (2 * p.initial)
		}
		ratio = min(max(ratio, 0), 1)
		filled := int(ratio * 10)
		bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", 10-filled) + "]"
		line := fmt.Sprintf("%-10s %s %.3f", p.name, bar, val)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SPC:Pause R:Reset Q:Quit\nTab ↑↓:Tune 0-9 -:Setpoint"))

	left := canvasStyle.Render(m.canvas.String())
	if len(m.attitude) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.attitude, m.setpoint},
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
			asciigraph.Caption("attitude vs setpoint (deg)"),
		)
		left = lipgloss.JoinVertical(lipgloss.Left, left, graphStyle.Render(chart))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, statsStyle.Render(s.String()))
}

// draw renders a side view of the airframe on its pivot, with the setpoint
// attitude as a dotted line.
func (m *Model) draw() {
	m.canvas.Clear()
	cw, ch := canvasWidth*2, canvasHeight*4
	cx, cy := cw/2, ch/2
	arm := float64(cw)/2 - 4

	m.canvas.DrawLine(cx, cy, cx, ch-1, 1)
	m.canvas.DrawLine(cx-6, ch-1, cx+6, ch-1, 1)

	line := func(deg float64, step int) {
		rad := deg * math.Pi / 180
		dx, dy := int(arm*math.Cos(rad)), int(arm*math.Sin(rad))
		m.canvas.DrawLine(cx-dx, cy+dy, cx+dx, cy-dy, step)
	}
	line(m.loop.Last().Setpoint, 3)
	line(m.state[0], 1)
}
