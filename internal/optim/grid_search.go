package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/dronectl/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no candidate completed")

// Candidate is one point of the grid with the metric it scored.
type Candidate struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every grid point and returns the parameters minimizing
// metricName. Points whose experiment fails to build, run or stay finite
// are skipped; if
// every point fails ErrNoCandidate is returned. visit, when non-nil, sees
// every candidate as it completes.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
	visit func(Candidate),
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		c := Candidate{Params: params, Score: math.Inf(1)}
		defer func() {
			if visit != nil {
				visit(c)
			}
		}()

		exp, err := buildExperiment(params)
		if err != nil {
			c.Err = err
			return
		}
		result, err := exp.Run(ctx)
		if err != nil {
			c.Err = err
			return
		}
		if len(result.Errors) > 0 {
			c.Err = errors.Join(result.Errors...)
			return
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			c.Err = fmt.Errorf("optim: metric %q not reported", metricName)
			return
		}
		c.Score = val
		if val < best {
			best = val
			bestParams = maps.Clone(params)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		eval(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, eval); err != nil {
			return err
		}
	}
	return nil
}
