package escape

import "fmt"

// DeviceClass is a kind of compute device a driver may select.
type DeviceClass int

const (
	// ClassGPU selects graphics processors.
	ClassGPU DeviceClass = iota
	// ClassAccelerator selects dedicated compute accelerators.
	ClassAccelerator
)

func (c DeviceClass) String() string {
	switch c {
	case ClassGPU:
		return "gpu"
	case ClassAccelerator:
		return "accelerator"
	}
	return fmt.Sprintf("DeviceClass(%d)", int(c))
}

// DeviceInfo describes the device a session is bound to.
type DeviceInfo struct {
	Name             string
	Vendor           string
	Platform         string
	Class            DeviceClass
	MaxWorkGroupSize int
	// FP64 is set when the device supports double precision kernels.
	FP64 bool
}

// Driver opens device sessions. Each call to Open acquires a fresh device
// context and command queue; nothing is shared between sessions.
type Driver interface {
	// Open selects the first device matching classes, in preference order,
	// and creates a context and a queue on it. On error nothing is left
	// acquired.
	Open(classes []DeviceClass) (Session, error)
}

// OutputArg stands for the session's output buffer in a Bind call.
type OutputArg struct{}

// Session owns every device resource of one evaluation call. Methods are
// called at most once each, in the order Build, Alloc, Bind, Launch, Read.
// Close releases everything acquired so far and may be called at any point.
type Session interface {
	Device() DeviceInfo

	// Build compiles source with options and creates the named kernel.
	Build(source, kernel, options string) error

	// Alloc creates the write-only output buffer of size bytes.
	Alloc(size int) error

	// Bind sets the kernel arguments in order. Supported argument types are
	// int32, float32, float64 and OutputArg.
	Bind(args ...any) error

	// Launch enqueues one 1-D execution of the kernel over global work-items
	// grouped by local.
	Launch(global, local int) error

	// Read waits for the launched kernel to finish and copies the output
	// buffer into dst.
	Read(dst []byte) error

	Close()
}
