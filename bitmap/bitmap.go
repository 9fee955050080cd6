// Package bitmap packs membership grids into bit arrays, eight cells per byte,
// least significant bit first.
package bitmap

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Size returns the number of bytes needed for n cells.
func Size(n int) int {
	return (n + 7) / 8
}

// Marshal packs grid into a bit array.
func Marshal(grid []bool) []byte {
	b := make([]byte, Size(len(grid)))
	packRange(b, grid, 0, len(b), 1)
	return b
}

// MarshalParallel packs grid using n goroutines, each one taking every n-th
// output byte.
func MarshalParallel(grid []bool, n int) ([]byte, error) {
	if n < 1 {
		return nil, errors.Errorf("bitmap: need at least one goroutine, got %d", n)
	}
	b := make([]byte, Size(len(grid)))
	var g errgroup.Group
	for offset := 0; offset < n && offset < len(b); offset++ {
		g.Go(func() error {
			packRange(b, grid, offset, len(b), n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

func packRange(b []byte, grid []bool, first, last, step int) {
	for i := first; i < last; i += step {
		var v byte
		cells := grid[i*8 : min(i*8+8, len(grid))]
		for bit, set := range cells {
			if set {
				v |= 1 << bit
			}
		}
		b[i] = v
	}
}

// Unmarshal expands the first n cells of a bit array.
func Unmarshal(b []byte, n int) ([]bool, error) {
	if n < 0 || Size(n) > len(b) {
		return nil, errors.Errorf("bitmap: %d bytes cannot hold %d cells", len(b), n)
	}
	grid := make([]bool, n)
	for i := range grid {
		grid[i] = b[i/8]&(1<<(i%8)) != 0
	}
	return grid, nil
}
