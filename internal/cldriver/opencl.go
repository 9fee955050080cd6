//go:build opencl

package cldriver

import (
	"strings"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/jgillich/go-opencl/cl"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"escapegrid/escape"
	"escapegrid/internal/release"
)

// Available reports whether the OpenCL driver was compiled in.
const Available = true

// Driver opens sessions on OpenCL devices.
type Driver struct{}

var _ escape.Driver = Driver{}

// New returns the OpenCL driver.
func New() Driver { return Driver{} }

func deviceType(class escape.DeviceClass) cl.DeviceType {
	if class == escape.ClassAccelerator {
		return cl.DeviceTypeAccelerator
	}
	return cl.DeviceTypeGPU
}

func platforms() ([]*cl.Platform, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, errors.Wrap(err, msg)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	return platforms, nil
}

func describe(p *cl.Platform, d *cl.Device, class escape.DeviceClass) escape.DeviceInfo {
	return escape.DeviceInfo{
		Name:             d.Name(),
		Vendor:           d.Vendor(),
		Platform:         p.Name(),
		Class:            class,
		MaxWorkGroupSize: d.MaxWorkGroupSize(),
		FP64:             strings.Contains(d.Extensions(), "cl_khr_fp64"),
	}
}

// Devices lists every GPU and accelerator on every platform.
func Devices() ([]escape.DeviceInfo, error) {
	ps, err := platforms()
	if err != nil {
		return nil, err
	}
	var infos []escape.DeviceInfo
	for _, p := range ps {
		for _, class := range []escape.DeviceClass{escape.ClassGPU, escape.ClassAccelerator} {
			devices, err := p.GetDevices(deviceType(class))
			if err != nil && err != cl.ErrDeviceNotFound {
				klog.V(1).Infof("cldriver: listing %s devices on %s: %v", class, p.Name(), err)
				continue
			}
			for _, d := range devices {
				infos = append(infos, describe(p, d, class))
			}
		}
	}
	return infos, nil
}

// Open picks the first device of the earliest class in classes, searching all
// platforms for each class before moving to the next one.
func (Driver) Open(classes []escape.DeviceClass) (escape.Session, error) {
	ps, err := platforms()
	if err != nil {
		return nil, err
	}
	var (
		device *cl.Device
		info   escape.DeviceInfo
	)
search:
	for _, class := range classes {
		for _, p := range ps {
			devices, derr := p.GetDevices(deviceType(class))
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				device = devices[0]
				info = describe(p, device, class)
				break search
			}
		}
	}
	if device == nil {
		return nil, errors.Errorf("no OpenCL device of class %v found", classes)
	}
	klog.V(1).Infof("cldriver: selected %s %q on %q (max work-group %d, fp64 %t)",
		info.Class, info.Name, info.Platform, info.MaxWorkGroupSize, info.FP64)

	s := &session{device: device, info: info}
	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, errors.Wrap(err, "creating OpenCL context")
	}
	s.held.Push("context", context.Release)
	s.context = context

	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "creating OpenCL command queue")
	}
	s.held.Push("command queue", queue.Release)
	s.queue = queue
	return s, nil
}

type session struct {
	held    release.Stack
	device  *cl.Device
	info    escape.DeviceInfo
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel
	out     *cl.MemObject
	outSize int
}

func (s *session) Device() escape.DeviceInfo { return s.info }

func (s *session) Build(source, name, options string) error {
	program, err := s.context.CreateProgramWithSource([]string{source})
	if err != nil {
		return errors.Wrap(err, "creating OpenCL program")
	}
	s.held.Push("program", program.Release)
	s.program = program
	if err := program.BuildProgram([]*cl.Device{s.device}, options); err != nil {
		if buildErr, ok := err.(cl.BuildError); ok {
			return errors.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return errors.Wrap(err, "building OpenCL program")
	}
	kernel, err := program.CreateKernel(name)
	if err != nil {
		return errors.Wrapf(err, "creating kernel %s", name)
	}
	s.held.Push("kernel", kernel.Release)
	s.kernel = kernel
	return nil
}

func (s *session) Alloc(size int) error {
	buf, err := s.context.CreateEmptyBuffer(cl.MemWriteOnly, size)
	if err != nil {
		return errors.Wrapf(err, "allocating %s output buffer", humanize.Bytes(uint64(size)))
	}
	s.held.Push("output buffer", buf.Release)
	s.out = buf
	s.outSize = size
	return nil
}

func (s *session) Bind(args ...any) error {
	if s.kernel == nil {
		return errors.New("no kernel built")
	}
	for i, arg := range args {
		var err error
		switch val := arg.(type) {
		case int32:
			err = s.kernel.SetArgInt32(i, val)
		case float32:
			err = s.kernel.SetArgFloat32(i, val)
		case float64:
			err = s.kernel.SetArgUnsafe(i, int(unsafe.Sizeof(val)), unsafe.Pointer(&val))
		case escape.OutputArg:
			if s.out == nil {
				return errors.Errorf("argument %d: output buffer not allocated", i)
			}
			err = s.kernel.SetArgBuffer(i, s.out)
		default:
			return errors.Errorf("argument %d: unsupported type %T", i, arg)
		}
		if err != nil {
			return errors.Wrapf(err, "setting kernel argument %d", i)
		}
	}
	return nil
}

func (s *session) Launch(global, local int) error {
	ev, err := s.queue.EnqueueNDRangeKernel(s.kernel, nil, []int{global}, []int{local}, nil)
	if err != nil {
		return errors.Wrapf(err, "enqueueing %d work-items in groups of %d", global, local)
	}
	if ev != nil {
		ev.Release()
	}
	return nil
}

func (s *session) Read(dst []byte) error {
	if len(dst) != s.outSize {
		return errors.Errorf("destination holds %d bytes, buffer has %d", len(dst), s.outSize)
	}
	if err := s.queue.Finish(); err != nil {
		return errors.Wrap(err, "waiting for kernel completion")
	}
	ev, err := s.queue.EnqueueReadBuffer(s.out, true, 0, len(dst), unsafe.Pointer(&dst[0]), nil)
	if err != nil {
		return errors.Wrap(err, "reading output buffer")
	}
	if ev != nil {
		ev.Release()
	}
	return nil
}

func (s *session) Close() {
	s.held.Unwind()
	s.out, s.kernel, s.program, s.queue, s.context = nil, nil, nil, nil, nil
}
