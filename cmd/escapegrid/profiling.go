package main

import (
	"os"
	"runtime/pprof"
	"sync"

	"github.com/pkg/errors"
)

// startCPUProfile begins writing a CPU profile to path and returns the
// function that stops it. The stop function is safe to call more than once.
func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating CPU profile")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "starting CPU profile")
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}
	return stop, nil
}
