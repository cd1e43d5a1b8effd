// Package optim searches design parameters for the best closed-loop metric.
package optim

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/san-kum/dare/internal/sim"
)

var ErrNoCandidates = errors.New("optim: no grid point produced a result")

// Evaluate runs one grid point and returns the closed-loop result.
type Evaluate func(ctx context.Context, params map[string]float64) (*sim.Result, error)

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search and Rank prefer the largest metric value.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}

// worst is the value recorded for a point without a usable metric.
func (g *GridSearch) worst() float64 {
	if g.maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Search evaluates every combination and returns the best point for
// metricName, along with all points in evaluation order. Failed runs and
// NaN values never win.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate, metricName string) (Point, []Point, error) {
	var points []Point
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), eval, metricName, &points); err != nil {
		return Point{}, points, err
	}

	best := Point{Value: g.worst()}
	for _, p := range points {
		if p.Err == nil && g.better(p.Value, best.Value) {
			best = p
		}
	}
	if best.Params == nil {
		return Point{}, points, ErrNoCandidates
	}
	return best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval Evaluate,
	metricName string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}

		p := Point{Params: params, Value: g.worst()}
		result, err := eval(ctx, params)
		switch {
		case err != nil:
			p.Err = err
		default:
			if v, ok := result.Metrics[metricName]; ok && !math.IsNaN(v) {
				p.Value = v
			}
		}
		*points = append(*points, p)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, eval, metricName, points); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}

// Rank sorts points best first, failures last.
func (g *GridSearch) Rank(points []Point) []Point {
	out := append([]Point(nil), points...)
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Err == nil) != (out[j].Err == nil) {
			return out[i].Err == nil
		}
		return g.better(out[i].Value, out[j].Value)
	})
	return out
}

// Powers returns base^lo ... base^hi.
func Powers(base float64, lo, hi int) []float64 {
	out := make([]float64, 0, hi-lo+1)
	for e := lo; e <= hi; e++ {
		out = append(out, math.Pow(base, float64(e)))
	}
	return out
}
