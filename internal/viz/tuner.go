package viz

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/dare"
	"github.com/san-kum/dare/internal/lqr"
	"github.com/san-kum/dare/internal/metrics"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

const (
	weightQ = iota
	weightR
)

// designMsg carries the outcome of one background re-solve.
type designMsg struct {
	gen    int
	design *lqr.Result
	run    *sim.Result
	err    error
}

// Tuner is an interactive weight tuner. Each change rescales Q or R by a
// power of two, re-solves the DARE and re-runs the closed loop.
type Tuner struct {
	base       plant.Problem
	dyn        sim.Dynamics
	integrator sim.Integrator
	x0         sim.State
	cfg        sim.Config
	opts       []dare.Option

	// exponents: weight = base · 2^exp
	qExp, rExp int
	cursor     int
	plotState  int
	gen        int

	design *lqr.Result
	run    *sim.Result
	err    error

	width, height int
}

func NewTuner(p plant.Problem, dyn sim.Dynamics, integrator sim.Integrator, x0 sim.State, cfg sim.Config, opts ...dare.Option) *Tuner {
	return &Tuner{
		base:       p,
		dyn:        dyn,
		integrator: integrator,
		x0:         x0,
		cfg:        cfg,
		opts:       opts,
		width:      80,
		height:     24,
	}
}

func (m *Tuner) Init() tea.Cmd {
	return m.resolve()
}

// Problem returns the base problem with the current weight scaling applied.
func (m *Tuner) Problem() plant.Problem {
	p := m.base
	var q, r mat.Dense
	q.Scale(math.Exp2(float64(m.qExp)), m.base.Weights.Q)
	r.Scale(math.Exp2(float64(m.rExp)), m.base.Weights.R)
	p.Weights = plant.CostWeights{Q: &q, R: &r}
	return p
}

func (m *Tuner) resolve() tea.Cmd {
	m.gen++
	gen, p := m.gen, m.Problem()
	return func() tea.Msg {
		return solveAndRun(gen, p, m.dyn, m.integrator, m.x0, m.cfg, m.opts)
	}
}

func solveAndRun(gen int, p plant.Problem, dyn sim.Dynamics, integrator sim.Integrator, x0 sim.State, cfg sim.Config, opts []dare.Option) designMsg {
	d, err := lqr.Design(p, opts...)
	if err != nil {
		return designMsg{gen: gen, err: err}
	}

	s := sim.New(dyn, integrator, d.Controller())
	s.AddMetric(metrics.NewQuadraticCost(p.Weights.Q, p.Weights.R))
	s.AddMetric(metrics.NewControlEffort())

	run, err := s.Run(context.Background(), x0, cfg)
	return designMsg{gen: gen, design: d, run: run, err: err}
}

func (m *Tuner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case designMsg:
		// a newer request supersedes this one
		if msg.gen == m.gen {
			m.design, m.run, m.err = msg.design, msg.run, msg.err
		}
	}
	return m, nil
}

func (m *Tuner) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = weightQ
	case "down", "j":
		m.cursor = weightR
	case "left", "h":
		m.bump(-1)
		return m, m.resolve()
	case "right", "l":
		m.bump(1)
		return m, m.resolve()
	case "0":
		m.qExp, m.rExp = 0, 0
		return m, m.resolve()
	case "n":
		m.plotState = (m.plotState + 1) % m.dyn.StateDim()
	}
	return m, nil
}

func (m *Tuner) bump(d int) {
	if m.cursor == weightQ {
		m.qExp += d
	} else {
		m.rExp += d
	}
}

// Design returns the latest completed design, or nil.
func (m *Tuner) Design() *lqr.Result { return m.design }

func (m *Tuner) View() string {
	var b strings.Builder

	b.WriteString(Title.Render("LQR tuner: " + m.base.Name))
	b.WriteString("\n\n")
	b.WriteString(m.weightLine(weightQ, "Q", m.qExp))
	b.WriteByte('\n')
	b.WriteString(m.weightLine(weightR, "R", m.rExp))
	b.WriteString("\n\n")

	switch {
	case m.design == nil && m.err == nil:
		b.WriteString(Subtle.Render("solving..."))
	case m.err != nil && m.design == nil:
		b.WriteString(StatusBad.Render("error: " + m.err.Error()))
	default:
		d := m.design
		b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			MetricLabel.Render("ρ"), MetricValue.Render(fmt.Sprintf("%.5f", d.SpectralRadius)),
			MetricLabel.Render("iter"), MetricValue.Render(fmt.Sprintf("%d", d.Iterations)),
			MetricLabel.Render("solve"), MetricValue.Render(fmt.Sprintf("%d µs", d.SolveTime.Microseconds())),
		))
		if m.run != nil {
			b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
				MetricLabel.Render("cost"), MetricValue.Render(fmt.Sprintf("%.4g", m.run.Metrics["lqr_cost"])),
				MetricLabel.Render("effort"), MetricValue.Render(fmt.Sprintf("%.4g", m.run.Metrics["control_effort"])),
			))
		}
		if m.err != nil {
			b.WriteString(StatusBad.Render("run: "+m.err.Error()) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(FormatMatrix(d.K, 4))
		b.WriteString("\n\n")
		if m.run != nil {
			width := max(m.width-12, 20)
			b.WriteString(PlotResponse(m.run, width, 8, m.plotState))
			b.WriteByte('\n')
		}
	}

	b.WriteString("\n")
	b.WriteString(KeyHint.Render("↑↓ select  ←→ halve/double  0 reset  n next state  q quit"))
	return b.String()
}

func (m *Tuner) weightLine(idx int, name string, exp int) string {
	label := fmt.Sprintf("%s × 2^%d", name, exp)
	if m.cursor == idx {
		return Selected.Render("▸ " + label)
	}
	return "  " + label
}
