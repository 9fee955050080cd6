package escape

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCoordinateMapping(t *testing.T) {
	v := Viewport{CX: 0, CY: 0, Dist: 1, ResX: 4, ResY: 4}

	x, y := v.Point(0)
	assert.Equal(t, -1.5, x)
	assert.Equal(t, 1.5, y, "index 0 is the top-left cell")

	x, y = v.Point(15)
	assert.Equal(t, 1.5, x)
	assert.Equal(t, -1.5, y, "last index is the bottom-right cell")

	for i := 0; i < v.Cells(); i++ {
		x0, y0 := v.Point(i)
		x1, y1 := v.Point(v.Cells() - 1 - i)
		assert.Equal(t, x0, -x1, "index %d", i)
		assert.Equal(t, y0, -y1, "index %d", i)
	}
}

func TestCellIndexBijection(t *testing.T) {
	for _, res := range [][2]int{{1, 1}, {1, 7}, {7, 1}, {4, 4}, {13, 5}, {100, 100}} {
		v := Viewport{Dist: 0.1, ResX: res[0], ResY: res[1]}
		seen := make(map[[2]int]bool, v.Cells())
		for i := 0; i < v.Cells(); i++ {
			col, row := v.Cell(i)
			require.True(t, col >= 0 && col < v.ResX && row >= 0 && row < v.ResY)
			require.Equal(t, i, v.Index(col, row))
			seen[[2]int{col, row}] = true
		}
		assert.Len(t, seen, v.Cells(), "resolution %v", res)
	}
}

func TestPointSpacing(t *testing.T) {
	v := Viewport{CX: 2, CY: -3, Dist: 0.25, ResX: 6, ResY: 3}
	x0, y0 := v.Point(v.Index(0, 0))
	x1, y1 := v.Point(v.Index(1, 0))
	x2, y2 := v.Point(v.Index(0, 1))
	assert.InDelta(t, 0.25, x1-x0, 1e-12)
	assert.Equal(t, y0, y1)
	assert.Equal(t, x0, x2)
	assert.InDelta(t, -0.25, y2-y0, 1e-12)

	// Opposite corners are symmetric about the center.
	xl, yl := v.Point(v.Cells() - 1)
	assert.InDelta(t, 2*v.CX, x0+xl, 1e-12)
	assert.InDelta(t, 2*v.CY, y0+yl, 1e-12)
}

func TestViewportCentering(t *testing.T) {
	for _, c := range []complex128{0, -1, complex(-0.1, 0.1), complex(0.5, 0.5), complex(2, 2), 0.3} {
		v := Viewport{CX: real(c), CY: imag(c), Dist: 0.01, ResX: 101, ResY: 51}
		center := v.Index(50, 25)
		x, y := v.Point(center)
		assert.InDelta(t, v.CX, x, 1e-12)
		assert.InDelta(t, v.CY, y, 1e-12)

		p := ParamsFromLimit(2, 200)
		grid, err := Reference{Workers: 4}.Compute(v, p)
		require.NoError(t, err)
		assert.Equal(t, Bounded(v.CX, v.CY, p), grid[center], "center %v", c)
	}
}

func TestViewportValidate(t *testing.T) {
	tests := []struct {
		name string
		v    Viewport
		ok   bool
	}{
		{"valid", Viewport{Dist: 0.1, ResX: 3, ResY: 2}, true},
		{"zero width", Viewport{Dist: 0.1, ResX: 0, ResY: 2}, false},
		{"negative height", Viewport{Dist: 0.1, ResX: 3, ResY: -1}, false},
		{"zero spacing", Viewport{Dist: 0, ResX: 3, ResY: 2}, false},
		{"nan spacing", Viewport{Dist: math.NaN(), ResX: 3, ResY: 2}, false},
		{"infinite center", Viewport{CX: math.Inf(1), Dist: 0.1, ResX: 3, ResY: 2}, false},
		{"too many cells", Viewport{Dist: 0.1, ResX: 1 << 16, ResY: 1 << 16}, false},
	}
	for _, tc := range tests {
		err := tc.v.Validate()
		if tc.ok {
			assert.NoError(t, err, tc.name)
			continue
		}
		assert.True(t, errors.Is(err, ErrInvalidParameters), "%s: %v", tc.name, err)
	}
}

func TestParams(t *testing.T) {
	p := ParamsFromLimit(2, 50)
	assert.Equal(t, 4.0, p.LimSq)
	assert.NoError(t, p.Validate())
	assert.NoError(t, Params{LimSq: 4, Its: 0}.Validate())
	assert.Error(t, Params{LimSq: 0, Its: 10}.Validate())
	assert.Error(t, Params{LimSq: 4, Its: -1}.Validate())
}

func TestViewportFromZoom(t *testing.T) {
	v := ViewportFromZoom(complex(-0.5, 0.25), 200, 640, 480)
	assert.Equal(t, Viewport{CX: -0.5, CY: 0.25, Dist: 0.005, ResX: 640, ResY: 480}, v)
}

func TestScaleIterations(t *testing.T) {
	assert.Equal(t, 1, ScaleIterations(100, 0))
	assert.Equal(t, int(100*math.Log1p(200)), ScaleIterations(100, 200))
	assert.Less(t, ScaleIterations(100, 10), ScaleIterations(100, 1000))
	assert.InDelta(t, 1.5625, ZoomLevel(2), 1e-12)
	assert.Equal(t, 1.0, ZoomLevel(0))
}

func TestGlobalSize(t *testing.T) {
	tests := []struct{ total, local, want int }{
		{10000, 32, 10016},
		{10000, 100, 10100},
		{10000, 1, 10001},
		{7, 8, 8},
		{16, 16, 32},
	}
	for _, tc := range tests {
		got := GlobalSize(tc.total, tc.local)
		assert.Equal(t, tc.want, got, "total %d local %d", tc.total, tc.local)
		assert.Zero(t, got%tc.local)
		assert.Greater(t, got, tc.total-1)
	}
}
