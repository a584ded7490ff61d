package experiment

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dronectl/internal/config"
)

type SweepResult struct {
	Seeds []int64
	// Runs holds each seed's metrics, in Seeds order.
	Runs []map[string]float64
	Mean map[string]float64
	Max  map[string]float64
}

// Sweep flies cfg once per seed, each with its own plant, sensor and loop,
// on up to workers goroutines. workers <= 0 uses GOMAXPROCS. The first
// failing or diverging run cancels the rest.
func Sweep(ctx context.Context, cfg *config.Config, seeds []int64, workers int) (*SweepResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	runs := make([]map[string]float64, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			c := cfg.Clone()
			c.Seed = seed
			exp, err := New(c)
			if err != nil {
				return err
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("seed %d: %w", seed, errors.Join(res.Errors...))
			}
			runs[i] = res.Metrics
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SweepResult{
		Seeds: append([]int64(nil), seeds...),
		Runs:  runs,
		Mean:  make(map[string]float64),
		Max:   make(map[string]float64),
	}
	for _, run := range runs {
		for name, v := range run {
			out.Mean[name] += v / float64(len(runs))
			if cur, ok := out.Max[name]; !ok || v > cur {
				out.Max[name] = v
			}
		}
	}
	return out, nil
}
