// Package escape evaluates escape-time set membership over a grid of points,
// one accelerator work-item per grid cell.
package escape

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Generator computes a membership grid for a viewport.
type Generator interface {
	// Compute returns a freshly allocated grid of v.Cells() values where
	// index i holds the cell (i mod ResX, i div ResX).
	Compute(v Viewport, p Params) ([]bool, error)
}

// Engine evaluates grids on an accelerator through a Driver. Every call
// acquires its own device resources and releases them before returning, so an
// Engine may be used from several goroutines.
type Engine struct {
	driver Driver
	cfg    Config
}

var _ Generator = (*Engine)(nil)

// New returns an engine running on driver with the given settings.
func New(driver Driver, cfg Config) (*Engine, error) {
	if driver == nil {
		return nil, invalidf("nil driver")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Classes = append([]DeviceClass(nil), cfg.Classes...)
	return &Engine{driver: driver, cfg: cfg}, nil
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Classes = append([]DeviceClass(nil), e.cfg.Classes...)
	return cfg
}

// Compute allocates the output grid and fills it with Evaluate.
func (e *Engine) Compute(v Viewport, p Params) ([]bool, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	out := make([]bool, v.Cells())
	if err := e.Evaluate(out, v, p); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate fills out, which must hold exactly v.Cells() values, with the
// membership of every cell of v. It blocks until the device has finished and
// all device resources are released. On error the contents of out are
// undefined.
func (e *Engine) Evaluate(out []bool, v Viewport, p Params) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	total := v.Cells()
	if len(out) != total {
		return invalidf("output holds %d cells, viewport needs %d", len(out), total)
	}
	start := time.Now()

	sess, err := e.driver.Open(e.cfg.Classes)
	if err != nil {
		return stageError(StageAcquire, "opening device session", err)
	}
	defer sess.Close()
	dev := sess.Device()
	klog.V(1).Infof("escape: evaluating %dx%d on %s (%s)", v.ResX, v.ResY, dev.Name, dev.Class)

	fp64, err := e.useDouble(dev)
	if err != nil {
		return stageError(StageBuild, "selecting precision", err)
	}
	options := ""
	if fp64 {
		options = fp64Option
	}
	if err := sess.Build(KernelSource, KernelName, options); err != nil {
		return stageError(StageBuild, "compiling "+KernelName, err)
	}

	local := e.cfg.LocalSize
	if dev.MaxWorkGroupSize > 0 && local > dev.MaxWorkGroupSize {
		return stageError(StageDispatch, "checking launch geometry",
			errors.Errorf("local size %d exceeds device limit %d", local, dev.MaxWorkGroupSize))
	}
	if err := sess.Alloc(total); err != nil {
		return stageError(StageDispatch, "allocating output buffer", err)
	}
	if err := sess.Bind(kernelArgs(v, p, fp64)...); err != nil {
		return stageError(StageDispatch, "binding kernel arguments", err)
	}
	global := GlobalSize(total, local)
	klog.V(2).Infof("escape: launching %d work-items in groups of %d for %d cells", global, local, total)
	if err := sess.Launch(global, local); err != nil {
		return stageError(StageDispatch, "enqueueing kernel", err)
	}

	raw := make([]byte, total)
	if err := sess.Read(raw); err != nil {
		return stageError(StageRetrieve, "reading output buffer", err)
	}
	for i, b := range raw {
		out[i] = b != 0
	}
	klog.V(1).Infof("escape: %s read back from %s in %s",
		humanize.Bytes(uint64(total)), dev.Name, time.Since(start))
	return nil
}

func (e *Engine) useDouble(dev DeviceInfo) (bool, error) {
	switch e.cfg.Precision {
	case PrecisionDouble:
		if !dev.FP64 {
			return false, errors.Errorf("device %s does not support double precision", dev.Name)
		}
		return true, nil
	case PrecisionSingle:
		return false, nil
	}
	return dev.FP64, nil
}

// kernelArgs lists the KernelSource arguments in declaration order.
func kernelArgs(v Viewport, p Params, fp64 bool) []any {
	ulx, uly := v.UpperLeft()
	scalar := func(f float64) any {
		if fp64 {
			return f
		}
		return float32(f)
	}
	return []any{
		int32(v.Cells()),
		int32(v.ResX),
		scalar(p.LimSq),
		int32(p.Its),
		scalar(v.Dist),
		scalar(ulx),
		scalar(uly),
		OutputArg{},
	}
}
