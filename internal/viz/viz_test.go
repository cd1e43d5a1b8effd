package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dare/internal/integrators"
	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/lqr"
	"github.com/san-kum/dare/internal/models"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

func TestFormatMatrix(t *testing.T) {
	out := FormatMatrix(linalg.FromRows([][]float64{{1, -2.5}, {0, 1000}}), 4)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "-2.5")
	assert.Contains(t, lines[1], "1000")

	assert.Contains(t, FormatMatrix(linalg.Diag(3), 4), "3")
}

func TestReport(t *testing.T) {
	r, err := lqr.Design(plant.Drivetrain(2.0))
	require.NoError(t, err)

	out := Report(r, true)
	assert.Contains(t, out, "drivetrain")
	assert.Contains(t, out, "5 × 2")
	assert.Contains(t, out, "stable")
	assert.Contains(t, out, "S")
}

func TestTable(t *testing.T) {
	out := Table([]string{"id", "iterations"}, [][]string{{"a", "7"}, {"longer_id", "12"}})
	assert.Contains(t, out, "longer_id")
	assert.Equal(t, 3, strings.Count(out, "\n")+1)
}

func TestPlotResponse(t *testing.T) {
	res := &sim.Result{
		States: []sim.State{{1, 0}, {0.5, -1}, {0.25, -0.5}, {0.1, -0.2}},
		Times:  []float64{0, 0.1, 0.2, 0.3},
	}
	assert.NotEmpty(t, PlotResponse(res, 40, 5))
	assert.NotEmpty(t, PlotResponse(res, 40, 5, 1))
	assert.Empty(t, PlotResponse(&sim.Result{}, 40, 5))

	res.Controls = []sim.Control{{1}, {0.5}, {0.2}}
	assert.NotEmpty(t, PlotControls(res, 0, 40, 5))
	assert.Empty(t, PlotControls(res, 3, 40, 5))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "────", Sparkline(nil, 4))
	assert.NotEmpty(t, Sparkline([]float64{1, 2, 3}, 10))
}

func newTuner(t *testing.T) *Tuner {
	t.Helper()
	pend := models.NewPendulum()
	p := plant.Problem{
		Name:    "pendulum",
		Model:   pend.Linearize(),
		Weights: plant.CostWeights{Q: linalg.Identity(2), R: linalg.Diag(1)},
		Dt:      0.01,
	}
	rk4, err := integrators.Get("rk4")
	require.NoError(t, err)
	cfg := sim.Config{Dt: 0.01, Duration: 1, Substeps: 2, ValidateState: true}
	return NewTuner(p, pend, rk4, sim.State{0.1, 0}, cfg)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTunerSolvesOnInit(t *testing.T) {
	m := newTuner(t)
	assert.Contains(t, m.View(), "solving")

	cmd := m.Init()
	require.NotNil(t, cmd)
	m.Update(cmd())

	require.NotNil(t, m.Design())
	assert.True(t, m.Design().Stable())
	assert.Contains(t, m.View(), "ρ")
}

func TestTunerRescalesWeights(t *testing.T) {
	m := newTuner(t)
	m.Update(m.Init()())
	base := m.Design().K.At(0, 0)

	// doubling Q twice asks for a stiffer loop
	_, cmd := m.Update(key("right"))
	require.NotNil(t, cmd)
	_, cmd = m.Update(key("right"))
	m.Update(cmd())

	assert.InDelta(t, 4.0, m.Problem().Weights.Q.At(0, 0), 1e-15)
	assert.Greater(t, m.Design().K.At(0, 0), base)

	m.Update(key("down"))
	_, cmd = m.Update(key("right"))
	m.Update(cmd())
	assert.InDelta(t, 2.0, m.Problem().Weights.R.At(0, 0), 1e-15)

	_, cmd = m.Update(key("0"))
	m.Update(cmd())
	assert.InDelta(t, base, m.Design().K.At(0, 0), 1e-12)
}

func TestTunerIgnoresStaleResults(t *testing.T) {
	m := newTuner(t)
	stale := m.Init()
	_, fresh := m.Update(key("right"))

	m.Update(stale())
	assert.Nil(t, m.Design())

	m.Update(fresh())
	assert.NotNil(t, m.Design())
}

func TestTunerQuits(t *testing.T) {
	m := newTuner(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
