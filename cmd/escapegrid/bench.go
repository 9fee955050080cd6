package main

import (
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"escapegrid/escape"
)

// benchResult summarizes repeated evaluations of one viewport.
type benchResult struct {
	runs    int
	mean    time.Duration
	members int
	cells   int
}

func (r benchResult) cellsPerSecond() float64 {
	if r.mean <= 0 {
		return 0
	}
	return float64(r.cells) / r.mean.Seconds()
}

// runBench evaluates v runs times and fails if any grid differs from the first.
func runBench(gen escape.Generator, v escape.Viewport, p escape.Params, runs int, step func()) (benchResult, error) {
	if runs < 1 {
		return benchResult{}, errors.Errorf("bench needs at least one run, got %d", runs)
	}
	var (
		first   []bool
		elapsed time.Duration
	)
	for i := 0; i < runs; i++ {
		start := time.Now()
		grid, err := gen.Compute(v, p)
		if err != nil {
			return benchResult{}, errors.Wrapf(err, "run %d", i)
		}
		elapsed += time.Since(start)
		if first == nil {
			first = grid
		} else if !slices.Equal(first, grid) {
			return benchResult{}, errors.Errorf("run %d differs from run 0", i)
		}
		if step != nil {
			step()
		}
	}
	members := 0
	for _, m := range first {
		if m {
			members++
		}
	}
	return benchResult{runs: runs, mean: elapsed / time.Duration(runs), members: members, cells: len(first)}, nil
}

func bench(gen escape.Generator) error {
	v, p := viewportFromFlags()
	bar := progressbar.Default(int64(*benchRunsFlag), "evaluating")
	res, err := runBench(gen, v, p, *benchRunsFlag, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	if err != nil {
		return err
	}
	klog.Infof("%d runs of %dx%d with %d iterations: mean %s per call, %s cells/s, %.2f%% members",
		res.runs, v.ResX, v.ResY, p.Its, res.mean,
		humanize.Comma(int64(res.cellsPerSecond())), 100*float64(res.members)/float64(res.cells))
	return nil
}
