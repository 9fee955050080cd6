package escape

import "fmt"

// Precision selects the floating point width of the device kernel.
type Precision int

const (
	// PrecisionAuto uses double precision when the device supports it.
	PrecisionAuto Precision = iota
	// PrecisionDouble requires a device with cl_khr_fp64.
	PrecisionDouble
	// PrecisionSingle always builds the float kernel.
	PrecisionSingle
)

func (p Precision) String() string {
	switch p {
	case PrecisionAuto:
		return "auto"
	case PrecisionDouble:
		return "double"
	case PrecisionSingle:
		return "single"
	}
	return fmt.Sprintf("Precision(%d)", int(p))
}

// ParsePrecision accepts the names printed by Precision.String.
func ParsePrecision(s string) (Precision, error) {
	for _, p := range []Precision{PrecisionAuto, PrecisionDouble, PrecisionSingle} {
		if p.String() == s {
			return p, nil
		}
	}
	return PrecisionAuto, invalidf("unknown precision %q", s)
}

// Default engine settings.
const (
	DefaultLocalSize = 32
)

// Config holds the engine settings that do not change between calls.
type Config struct {
	// LocalSize is the number of work-items per local group.
	LocalSize int
	// Classes lists acceptable device classes in preference order.
	Classes []DeviceClass
	Precision Precision
}

// DefaultConfig prefers GPUs, then accelerators, with groups of 32.
func DefaultConfig() Config {
	return Config{
		LocalSize: DefaultLocalSize,
		Classes:   []DeviceClass{ClassGPU, ClassAccelerator},
		Precision: PrecisionAuto,
	}
}

// Validate rejects settings no device could run.
func (c Config) Validate() error {
	if c.LocalSize < 1 {
		return invalidf("local size %d must be at least 1", c.LocalSize)
	}
	if len(c.Classes) == 0 {
		return invalidf("no device classes configured")
	}
	for _, class := range c.Classes {
		if class != ClassGPU && class != ClassAccelerator {
			return invalidf("unsupported device class %s", class)
		}
	}
	if c.Precision < PrecisionAuto || c.Precision > PrecisionSingle {
		return invalidf("unsupported precision %s", c.Precision)
	}
	return nil
}
