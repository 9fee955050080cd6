//go:build !opencl

package cldriver

import (
	"github.com/pkg/errors"

	"escapegrid/escape"
)

// Available reports whether the OpenCL driver was compiled in.
const Available = false

var errDisabled = errors.New("OpenCL support is not enabled; rebuild with -tags opencl")

// Driver is a placeholder that fails to open any session.
type Driver struct{}

var _ escape.Driver = Driver{}

// New returns the placeholder driver.
func New() Driver { return Driver{} }

// Devices always fails without OpenCL support.
func Devices() ([]escape.DeviceInfo, error) {
	return nil, errDisabled
}

func (Driver) Open([]escape.DeviceClass) (escape.Session, error) {
	return nil, errDisabled
}
