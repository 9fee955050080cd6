package main

import "time"

// Default evaluation, server and viewer settings. Flags in flags.go start from
// these values.
const (
	defaultCenterX     = -0.5
	defaultCenterY     = 0.0
	defaultZoom        = 200.0
	defaultResX        = 640
	defaultResY        = 480
	defaultIterations  = 100
	defaultLimit       = 2.0
	defaultLocalSize   = 32
	defaultQueueSize   = 5
	defaultAddr        = ":8080"
	defaultBenchRuns   = 20
	maxCellsPerRequest = 4096 * 4096
	windowScale        = 1
	panStepPixels      = 16
	iterationStep      = 25
	minIterations      = 1
	maxIterations      = 100000
	shutdownTimeout    = 5 * time.Second
	readHeaderTimeout  = 10 * time.Second
)
