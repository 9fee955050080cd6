package escape

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Reference evaluates grids on the host with a pool of goroutines. It follows
// the same index mapping and recurrence as the device kernel and serves as the
// ground truth in tests and as a CPU backend.
type Reference struct {
	// Workers is the number of goroutines. Rows are dealt to them round robin.
	Workers int
}

var _ Generator = Reference{}

// NewReference returns a Reference using one worker per CPU.
func NewReference() Reference {
	return Reference{Workers: runtime.NumCPU()}
}

// Compute allocates the output grid and fills it with Evaluate.
func (r Reference) Compute(v Viewport, p Params) ([]bool, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	out := make([]bool, v.Cells())
	if err := r.Evaluate(out, v, p); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate fills out with the membership of every cell of v.
func (r Reference) Evaluate(out []bool, v Viewport, p Params) error {
	if r.Workers < 1 {
		return invalidf("reference needs at least one worker, got %d", r.Workers)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if len(out) != v.Cells() {
		return invalidf("output holds %d cells, viewport needs %d", len(out), v.Cells())
	}
	ulx, uly := v.UpperLeft()
	workers := min(r.Workers, v.ResY)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for row := w; row < v.ResY; row += workers {
				base := row * v.ResX
				for col := 0; col < v.ResX; col++ {
					x, y := pointAt(col, row, v.Dist, ulx, uly)
					out[base+col] = Bounded(x, y, p)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
