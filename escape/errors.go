package escape

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds returned by evaluation calls. Match them with errors.Is.
var (
	// ErrInvalidParameters is returned before any device work when the
	// viewport, parameters, output storage or configuration are unusable.
	ErrInvalidParameters = errors.New("escape: invalid parameters")

	// ErrInitialization means no usable device, context or queue was found.
	ErrInitialization = errors.New("escape: initialization failed")

	// ErrBuild means the evaluation kernel was rejected by the device compiler.
	ErrBuild = errors.New("escape: kernel build failed")

	// ErrDispatch means buffer allocation, argument binding or the launch failed.
	ErrDispatch = errors.New("escape: dispatch failed")

	// ErrRetrieval means the result could not be read back after dispatch.
	// The output grid is undefined when it is returned.
	ErrRetrieval = errors.New("escape: retrieval failed")

	// ErrQueueFull is returned by a Queue whose waiting list is full.
	ErrQueueFull = errors.New("escape: queue full")
)

// Stage identifies one step of the evaluation pipeline.
type Stage int

const (
	// StageAcquire selects the device and creates its context and queue.
	StageAcquire Stage = iota
	// StageBuild compiles the program and creates the kernel.
	StageBuild
	// StageDispatch allocates the output, binds arguments and enqueues.
	StageDispatch
	// StageRetrieve waits for the kernel and reads the output back.
	StageRetrieve
)

func (s Stage) String() string {
	switch s {
	case StageAcquire:
		return "acquire"
	case StageBuild:
		return "build"
	case StageDispatch:
		return "dispatch"
	case StageRetrieve:
		return "retrieve"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Kind returns the sentinel error matching failures of this stage.
func (s Stage) Kind() error {
	switch s {
	case StageAcquire:
		return ErrInitialization
	case StageBuild:
		return ErrBuild
	case StageDispatch:
		return ErrDispatch
	case StageRetrieve:
		return ErrRetrieval
	}
	return nil
}

// StageError reports the pipeline stage and operation that failed together
// with the driver error.
type StageError struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("escape: %s: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBuild) and friends match by stage.
func (e *StageError) Is(target error) bool {
	return target != nil && target == e.Stage.Kind()
}

func stageError(stage Stage, op string, err error) error {
	return &StageError{Stage: stage, Op: op, Err: err}
}

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidParameters, format, args...)
}
