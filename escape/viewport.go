package escape

import (
	"math"
)

// Viewport is the axis-aligned rectangle of the plane sampled by a grid of
// ResX by ResY cells spaced Dist apart and centered on (CX, CY).
type Viewport struct {
	CX, CY     float64
	Dist       float64
	ResX, ResY int
}

// ViewportFromZoom builds a viewport whose cell spacing is 1/zoom.
func ViewportFromZoom(center complex128, zoom float64, resx, resy int) Viewport {
	return Viewport{
		CX:   real(center),
		CY:   imag(center),
		Dist: 1 / zoom,
		ResX: resx,
		ResY: resy,
	}
}

// Cells returns the number of grid cells, which is also the output length.
func (v Viewport) Cells() int {
	return v.ResX * v.ResY
}

// Validate checks the invariants every evaluator relies on.
func (v Viewport) Validate() error {
	if v.ResX <= 0 || v.ResY <= 0 {
		return invalidf("resolution %dx%d must be positive", v.ResX, v.ResY)
	}
	// The device kernel indexes the grid with 32-bit integers.
	if v.ResX > math.MaxInt32/v.ResY {
		return invalidf("resolution %dx%d exceeds %d cells", v.ResX, v.ResY, math.MaxInt32)
	}
	if !(v.Dist > 0) || math.IsInf(v.Dist, 0) {
		return invalidf("cell spacing %g must be positive and finite", v.Dist)
	}
	if math.IsNaN(v.CX) || math.IsNaN(v.CY) || math.IsInf(v.CX, 0) || math.IsInf(v.CY, 0) {
		return invalidf("center (%g, %g) must be finite", v.CX, v.CY)
	}
	return nil
}

// UpperLeft returns the plane coordinate of the center of cell (0, 0).
func (v Viewport) UpperLeft() (ulx, uly float64) {
	ulx = v.CX - v.Dist*float64(v.ResX)/2 + v.Dist/2
	uly = v.CY + v.Dist*float64(v.ResY)/2 - v.Dist/2
	return ulx, uly
}

// Cell maps a linear grid index to its column and row.
func (v Viewport) Cell(index int) (col, row int) {
	return index % v.ResX, index / v.ResX
}

// Index is the inverse of Cell.
func (v Viewport) Index(col, row int) int {
	return row*v.ResX + col
}

// Point returns the plane coordinate sampled by the cell at index. Rows grow
// downwards, so y decreases with the row number.
func (v Viewport) Point(index int) (x, y float64) {
	ulx, uly := v.UpperLeft()
	col, row := v.Cell(index)
	return pointAt(col, row, v.Dist, ulx, uly)
}

func pointAt(col, row int, dist, ulx, uly float64) (x, y float64) {
	x = float64(col)*dist + ulx
	y = -float64(row)*dist + uly
	return x, y
}

// Params are the escape-time parameters of one evaluation.
type Params struct {
	// LimSq is the squared escape radius.
	LimSq float64
	// Its is the iteration budget per point.
	Its int
}

// ParamsFromLimit squares the escape radius lim.
func ParamsFromLimit(lim float64, its int) Params {
	return Params{LimSq: lim * lim, Its: its}
}

// Validate checks that the parameters can be bound to the kernel.
func (p Params) Validate() error {
	if !(p.LimSq > 0) || math.IsInf(p.LimSq, 0) {
		return invalidf("squared escape radius %g must be positive and finite", p.LimSq)
	}
	if p.Its < 0 || p.Its > math.MaxInt32 {
		return invalidf("iteration count %d out of range", p.Its)
	}
	return nil
}

// ScaleIterations grows the iteration budget with the zoom factor so that
// deeper views keep their detail. The result is at least 1.
func ScaleIterations(base int, zoom float64) int {
	its := int(float64(base) * math.Log1p(zoom))
	if its < 1 {
		return 1
	}
	return its
}

// ZoomLevel converts a discrete zoom step into a zoom factor.
func ZoomLevel(step int) float64 {
	return math.Pow(1.25, float64(step))
}
