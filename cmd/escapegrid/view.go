package main

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"escapegrid/escape"
)

// viewer renders membership grids in a window and recomputes them on input.
type viewer struct {
	gen   escape.Generator
	state *viewState

	pixels   []byte
	members  int
	dirty    bool
	lastEval time.Duration
}

func newViewer(gen escape.Generator) *viewer {
	s := newViewState(complex(*centerXFlag, *centerYFlag), *zoomFlag, *iterationsFlag, *limitFlag, *resXFlag, *resYFlag)
	return &viewer{
		gen:    gen,
		state:  s,
		pixels: make([]byte, s.resx*s.resy*4),
		dirty:  true,
	}
}

// Update applies keyboard and mouse input and recomputes the grid when the
// viewport changed.
func (g *viewer) Update() error {
	if g.handleInput() {
		g.dirty = true
	}
	if !g.dirty {
		return nil
	}
	v, p := g.state.viewport(), g.state.params()
	start := time.Now()
	grid, err := g.gen.Compute(v, p)
	if err != nil {
		return errors.Wrapf(err, "evaluating %dx%d at (%g, %g) zoom %g", v.ResX, v.ResY, v.CX, v.CY, g.state.zoom)
	}
	g.lastEval = time.Since(start)
	fillPixels(g.pixels, grid)
	g.members = 0
	for _, m := range grid {
		if m {
			g.members++
		}
	}
	g.dirty = false
	klog.V(1).Infof("Evaluated (%g, %g) zoom %g with %d iterations in %s", v.CX, v.CY, g.state.zoom, p.Its, g.lastEval)
	return nil
}

// handleInput reports whether the viewport changed.
func (g *viewer) handleInput() bool {
	s := g.state
	changed := false

	dx, dy := 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dy -= panStepPixels
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dy += panStepPixels
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dx -= panStepPixels
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dx += panStepPixels
	}
	changed = s.pan(dx, dy) || changed

	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		changed = s.scale(escape.ZoomLevel(1)) || changed
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		changed = s.scale(escape.ZoomLevel(-1)) || changed
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		changed = s.addIterations(iterationStep) || changed
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		changed = s.addIterations(-iterationStep) || changed
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		col, row := ebiten.CursorPosition()
		changed = s.recenter(col, row) || changed
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.reset()
		changed = true
	}
	return changed
}

// Draw blits the last grid and the optional debug overlay.
func (g *viewer) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.pixels)
	if *debugFlag {
		cells := g.state.resx * g.state.resy
		msg := fmt.Sprintf("FPS: %.1f\nCenter: %.10g %+.10gi\nZoom: %.4g\nIterations: %d ([ ])\nEval: %.2f ms\nMembers: %.2f%%",
			ebiten.ActualFPS(), real(g.state.center), imag(g.state.center), g.state.zoom,
			g.state.params().Its, g.lastEval.Seconds()*1000, 100*float64(g.members)/float64(cells))
		ebitenutil.DebugPrint(screen, msg)
	}
}

// Layout reports the logical screen size used by Ebiten.
func (g *viewer) Layout(_, _ int) (int, int) { return g.state.resx, g.state.resy }

func view(gen escape.Generator) error {
	v, _ := viewportFromFlags()
	if err := v.Validate(); err != nil {
		return err
	}
	g := newViewer(gen)
	ebiten.SetWindowSize(g.state.resx*windowScale, g.state.resy*windowScale)
	ebiten.SetWindowTitle("escapegrid")
	return ebiten.RunGame(g)
}
