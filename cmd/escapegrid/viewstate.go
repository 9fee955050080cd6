package main

import (
	"math"

	"escapegrid/escape"
)

// viewState is the navigable part of the interactive viewer.
type viewState struct {
	center     complex128
	zoom       float64
	iterations int
	limit      float64
	resx, resy int

	home viewHome
}

// viewHome is the position restored by reset.
type viewHome struct {
	center     complex128
	zoom       float64
	iterations int
}

func newViewState(center complex128, zoom float64, iterations int, limit float64, resx, resy int) *viewState {
	return &viewState{
		center:     center,
		zoom:       zoom,
		iterations: iterations,
		limit:      limit,
		resx:       resx,
		resy:       resy,
		home:       viewHome{center: center, zoom: zoom, iterations: iterations},
	}
}

func (s *viewState) viewport() escape.Viewport {
	return escape.ViewportFromZoom(s.center, s.zoom, s.resx, s.resy)
}

func (s *viewState) params() escape.Params {
	return escape.ParamsFromLimit(s.limit, escape.ScaleIterations(s.iterations, s.zoom))
}

// pan moves the center by dx, dy cells; positive dy moves down the screen.
func (s *viewState) pan(dx, dy float64) bool {
	if dx == 0 && dy == 0 {
		return false
	}
	step := 1 / s.zoom
	s.center += complex(dx*step, -dy*step)
	return true
}

// scale multiplies the zoom, refusing to leave the representable range.
func (s *viewState) scale(factor float64) bool {
	next := s.zoom * factor
	if !(next > 0) || math.IsInf(next, 0) || next == s.zoom {
		return false
	}
	s.zoom = next
	return true
}

func (s *viewState) addIterations(delta int) bool {
	next := clampInt(s.iterations+delta, minIterations, maxIterations)
	if next == s.iterations {
		return false
	}
	s.iterations = next
	return true
}

// recenter moves the cell under the cursor to the middle of the screen.
func (s *viewState) recenter(col, row int) bool {
	if col < 0 || row < 0 || col >= s.resx || row >= s.resy {
		return false
	}
	v := s.viewport()
	x, y := v.Point(v.Index(col, row))
	s.center = complex(x, y)
	return true
}

func (s *viewState) reset() {
	s.center, s.zoom, s.iterations = s.home.center, s.home.zoom, s.home.iterations
}

// fillPixels writes one RGBA pixel per cell of grid into pixels.
func fillPixels(pixels []byte, grid []bool) {
	for i, member := range grid {
		base := i * 4
		if base+3 >= len(pixels) {
			return
		}
		c := escapedColor
		if member {
			c = memberColor
		}
		pixels[base] = c[0]
		pixels[base+1] = c[1]
		pixels[base+2] = c[2]
		pixels[base+3] = 255
	}
}

var (
	memberColor  = [3]byte{10, 12, 30}
	escapedColor = [3]byte{230, 232, 240}
)

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
