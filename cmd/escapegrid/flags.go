package main

import "flag"

// Command-line flags shared by every mode.
var (
	// modeFlag selects what the command does: serve, view, bench or devices.
	modeFlag = flag.String("mode", "serve", "serve | view | bench | devices")

	// backendFlag chooses the OpenCL engine, the host reference evaluator, or a race of both.
	backendFlag = flag.String("backend", "opencl", "opencl | cpu | race")

	// localSizeFlag is the number of work-items per local group on the device.
	localSizeFlag = flag.Int("local-size", defaultLocalSize, "OpenCL work-items per local group")

	// precisionFlag picks the kernel floating point width.
	precisionFlag = flag.String("precision", "auto", "kernel precision: auto | double | single")

	// acceleratorsFlag also accepts non-GPU accelerators after GPUs.
	acceleratorsFlag = flag.Bool("accelerators", true, "accept dedicated accelerators when no GPU is present")

	// goroutinesFlag sizes the host reference pool and the bit packer.
	goroutinesFlag = flag.Int("goroutines", 0, "goroutines for the cpu backend and bit packing (0 = one per CPU)")

	limitFlag      = flag.Float64("limit", defaultLimit, "escape radius")
	iterationsFlag = flag.Int("iterations", defaultIterations, "base iteration budget, scaled with zoom")

	// Viewport flags used by view and bench.
	centerXFlag = flag.Float64("cx", defaultCenterX, "viewport center, real part")
	centerYFlag = flag.Float64("cy", defaultCenterY, "viewport center, imaginary part")
	zoomFlag    = flag.Float64("zoom", defaultZoom, "cells per unit of the plane")
	resXFlag    = flag.Int("resx", defaultResX, "grid width in cells")
	resYFlag    = flag.Int("resy", defaultResY, "grid height in cells")

	// addrFlag is the listen address of serve mode.
	addrFlag = flag.String("addr", defaultAddr, "HTTP listen address")

	// queueSizeFlag bounds how many requests may wait for the engine.
	queueSizeFlag = flag.Int("queue", defaultQueueSize, "requests allowed to wait for the engine")

	// gopsFlag starts the gops diagnostics agent in serve mode.
	gopsFlag = flag.Bool("gops", false, "start the gops diagnostics agent")

	benchRunsFlag = flag.Int("runs", defaultBenchRuns, "evaluations performed by bench mode")

	// cpuProfileFlag writes a CPU profile for the lifetime of the command.
	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")

	// debugFlag enables the viewer's timing overlay.
	debugFlag = flag.Bool("debug", false, "show evaluation timing overlay in view mode")
)
