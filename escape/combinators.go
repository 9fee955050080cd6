package escape

import (
	"context"

	"github.com/pkg/errors"
)

// Queue runs Compute calls of a generator one at a time. At most size callers
// may wait for their turn; further callers get ErrQueueFull immediately.
type Queue struct {
	gen     Generator
	waiting chan struct{}
	turn    chan struct{}
}

var _ Generator = (*Queue)(nil)

// NewQueue wraps gen in a Queue with room for size waiting callers.
func NewQueue(gen Generator, size int) (*Queue, error) {
	if gen == nil {
		return nil, invalidf("nil generator")
	}
	if size < 0 {
		return nil, invalidf("queue size %d must not be negative", size)
	}
	return &Queue{
		gen:     gen,
		waiting: make(chan struct{}, size),
		turn:    make(chan struct{}, 1),
	}, nil
}

// Compute is ComputeContext with a background context.
func (q *Queue) Compute(v Viewport, p Params) ([]bool, error) {
	return q.ComputeContext(context.Background(), v, p)
}

// ComputeContext waits for the caller's turn, or until ctx is done, and then
// runs the wrapped generator. A running computation is not interrupted by ctx.
// Waiting callers get their turn in the order they started waiting; a caller
// that finds the generator idle runs at once.
func (q *Queue) ComputeContext(ctx context.Context, v Viewport, p Params) ([]bool, error) {
	select {
	case q.turn <- struct{}{}:
	default:
		select {
		case q.waiting <- struct{}{}:
		default:
			return nil, ErrQueueFull
		}
		select {
		case q.turn <- struct{}{}:
			<-q.waiting
		case <-ctx.Done():
			<-q.waiting
			return nil, errors.Wrap(ctx.Err(), "escape: waiting in queue")
		}
	}
	defer func() { <-q.turn }()
	return q.gen.Compute(v, p)
}

// Waiting reports how many callers are waiting for their turn.
func (q *Queue) Waiting() int {
	return len(q.waiting)
}

type race struct {
	gens []Generator
}

// Race returns a generator that runs every gen concurrently and returns the
// first grid computed without error. If all of them fail, the error of the
// last one to finish is returned.
func Race(gens ...Generator) (Generator, error) {
	if len(gens) == 0 {
		return nil, invalidf("race needs at least one generator")
	}
	for i, g := range gens {
		if g == nil {
			return nil, invalidf("generator %d is nil", i)
		}
	}
	return &race{gens: append([]Generator(nil), gens...)}, nil
}

type raceResult struct {
	grid []bool
	err  error
}

func (r *race) Compute(v Viewport, p Params) ([]bool, error) {
	results := make(chan raceResult, len(r.gens))
	for _, g := range r.gens {
		go func() {
			grid, err := g.Compute(v, p)
			results <- raceResult{grid: grid, err: err}
		}()
	}
	var err error
	for range r.gens {
		res := <-results
		if res.err == nil {
			return res.grid, nil
		}
		err = res.err
	}
	return nil, err
}
