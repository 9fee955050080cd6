package escape

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginIsBounded(t *testing.T) {
	for _, limSq := range []float64{4, 9, 100} {
		for its := 1; its <= 64; its *= 2 {
			assert.True(t, Bounded(0, 0, Params{LimSq: limSq, Its: its}), "lim_sq %g its %d", limSq, its)
		}
	}
}

func TestKnownPoints(t *testing.T) {
	p := ParamsFromLimit(2, 500)
	assert.True(t, Bounded(-1, 0, p))
	assert.True(t, Bounded(-0.1, 0.1, p))
	assert.True(t, Bounded(0.25, 0, p))
	assert.False(t, Bounded(1, 1, p))
	assert.False(t, Bounded(0.5, 0, p))
	assert.False(t, Bounded(-2.1, 0, p))

	// With no iterations nothing can escape.
	assert.True(t, Bounded(10, 10, Params{LimSq: 4, Its: 0}))
	// (1, 0) escapes on the second step: 1, 2.
	assert.True(t, Bounded(1, 0, Params{LimSq: 4, Its: 1}))
	assert.False(t, Bounded(1, 0, Params{LimSq: 3.9, Its: 2}))
}

func TestEscapeMonotonicity(t *testing.T) {
	v := Viewport{CX: -0.5, CY: 0, Dist: 3.0 / 80, ResX: 80, ResY: 60}
	ref := Reference{Workers: 4}
	prev, err := ref.Compute(v, ParamsFromLimit(2, 1))
	require.NoError(t, err)
	for its := 2; its <= 40; its++ {
		cur, err := ref.Compute(v, ParamsFromLimit(2, its))
		require.NoError(t, err)
		for i := range cur {
			if !prev[i] && cur[i] {
				t.Fatalf("index %d escaped within %d iterations but not within %d", i, its-1, its)
			}
		}
		prev = cur
	}
}

func TestReferenceWorkerCountDoesNotMatter(t *testing.T) {
	v := Viewport{CX: -0.75, CY: 0.1, Dist: 0.01, ResX: 37, ResY: 23}
	p := ParamsFromLimit(2, 150)
	want, err := Reference{Workers: 1}.Compute(v, p)
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 8, 23, 64} {
		got, err := Reference{Workers: workers}.Compute(v, p)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers %d", workers)
	}
	for i, member := range want {
		x, y := v.Point(i)
		require.Equal(t, Bounded(x, y, p), member, "index %d", i)
	}
}

func TestReferenceRejectsBadInput(t *testing.T) {
	v := Viewport{Dist: 0.1, ResX: 2, ResY: 2}
	p := ParamsFromLimit(2, 10)

	_, err := Reference{}.Compute(v, p)
	assert.True(t, errors.Is(err, ErrInvalidParameters))

	err = NewReference().Evaluate(make([]bool, 3), v, p)
	assert.True(t, errors.Is(err, ErrInvalidParameters))
}
