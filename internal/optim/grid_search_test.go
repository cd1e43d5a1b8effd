package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dare/internal/sim"
)

func bowl(ctx context.Context, params map[string]float64) (*sim.Result, error) {
	x, y := params["x"], params["y"]
	if x == 3 {
		return nil, errors.New("diverged")
	}
	return &sim.Result{Metrics: map[string]float64{"cost": (x-1)*(x-1) + (y+2)*(y+2)}}, nil
}

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{{0, 1, 2, 3}, {-3, -2, -1}})

	best, points, err := g.Search(context.Background(), bowl, "cost")
	require.NoError(t, err)
	assert.Len(t, points, 12)
	assert.Equal(t, map[string]float64{"x": 1, "y": -2}, best.Params)
	assert.Equal(t, 0.0, best.Value)

	failed := 0
	for _, p := range points {
		if p.Err != nil {
			failed++
		}
	}
	assert.Equal(t, 3, failed)

	ranked := g.Rank(points)
	assert.Equal(t, best.Params, ranked[0].Params)
	assert.Error(t, ranked[len(ranked)-1].Err)
}

func TestGridSearchMissingMetric(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{3}})
	_, _, err := g.Search(context.Background(), bowl, "cost")
	assert.ErrorIs(t, err, ErrNoCandidates)

	g = NewGridSearch([]string{"x"}, [][]float64{{0}})
	_, points, err := g.Search(context.Background(), bowl, "nope")
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.True(t, math.IsInf(points[0].Value, 1))
}

func TestGridSearchMaximize(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{{0, 1, 2, 3}, {-3, -2, -1}}).Maximize()

	best, points, err := g.Search(context.Background(), bowl, "cost")
	require.NoError(t, err)
	// x = 3 fails; four corners tie at 2 and the first evaluated wins
	assert.Equal(t, map[string]float64{"x": 0, "y": -3}, best.Params)
	assert.Equal(t, 2.0, best.Value)

	ranked := g.Rank(points)
	assert.Equal(t, best.Params, ranked[0].Params)
	assert.Error(t, ranked[len(ranked)-1].Err)

	g = NewGridSearch([]string{"x"}, [][]float64{{0}}).Maximize()
	_, points, err = g.Search(context.Background(), bowl, "nope")
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.True(t, math.IsInf(points[0].Value, -1))
}

func TestGridSearchCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"x"}, [][]float64{{0, 1}})
	_, _, err := g.Search(ctx, bowl, "cost")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPowers(t *testing.T) {
	assert.Equal(t, []float64{0.25, 0.5, 1, 2}, Powers(2, -2, 1))
}
