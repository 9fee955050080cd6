// Command escapegrid computes escape-time membership grids on an OpenCL
// accelerator and serves, displays or benchmarks them.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"escapegrid/escape"
	"escapegrid/internal/cldriver"
	"escapegrid/internal/server"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	stopProfile := func() {}
	if *cpuProfileFlag != "" {
		stop, err := startCPUProfile(*cpuProfileFlag)
		if err != nil {
			klog.Fatalf("CPU profiling failed: %v", err)
		}
		stopProfile = stop
	}

	err := run(*modeFlag)
	stopProfile()
	if err != nil {
		klog.Errorf("%s failed: %v", *modeFlag, err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func run(mode string) error {
	if mode == "devices" {
		return listDevices()
	}
	gen, err := newGenerator()
	if err != nil {
		return err
	}
	switch mode {
	case "serve":
		return serve(gen)
	case "view":
		return view(gen)
	case "bench":
		return bench(gen)
	}
	return errors.Errorf("unknown mode %q", mode)
}

func goroutines() int {
	if *goroutinesFlag > 0 {
		return *goroutinesFlag
	}
	return runtime.NumCPU()
}

// newGenerator builds the evaluator selected by -backend.
func newGenerator() (escape.Generator, error) {
	switch *backendFlag {
	case "cpu":
		klog.Infof("Computing on %d goroutines", goroutines())
		return escape.Reference{Workers: goroutines()}, nil
	case "race":
		engine, err := newEngine()
		if err != nil {
			return nil, err
		}
		klog.Infof("Racing OpenCL against %d goroutines", goroutines())
		return escape.Race(engine, escape.Reference{Workers: goroutines()})
	case "opencl":
		engine, err := newEngine()
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
	return nil, errors.Errorf("unknown backend %q", *backendFlag)
}

// newEngine builds the OpenCL engine from the command line settings.
func newEngine() (*escape.Engine, error) {
	if !cldriver.Available {
		return nil, errors.New("OpenCL support is not compiled in; rebuild with -tags opencl or use -backend cpu")
	}
	cfg := escape.DefaultConfig()
	cfg.LocalSize = *localSizeFlag
	precision, err := escape.ParsePrecision(*precisionFlag)
	if err != nil {
		return nil, err
	}
	cfg.Precision = precision
	if !*acceleratorsFlag {
		cfg.Classes = []escape.DeviceClass{escape.ClassGPU}
	}
	engine, err := escape.New(cldriver.New(), cfg)
	if err != nil {
		return nil, err
	}
	klog.Infof("Computing on OpenCL (local size %d, precision %s)", cfg.LocalSize, cfg.Precision)
	return engine, nil
}

func listDevices() error {
	devices, err := cldriver.Devices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no OpenCL GPU or accelerator found")
		return nil
	}
	for i, d := range devices {
		fmt.Printf("%d: %s %q (%s, %s) max work-group %d fp64 %t\n",
			i, d.Class, d.Name, d.Vendor, d.Platform, d.MaxWorkGroupSize, d.FP64)
	}
	return nil
}

func serve(gen escape.Generator) error {
	queue, err := escape.NewQueue(gen, *queueSizeFlag)
	if err != nil {
		return err
	}
	handler, err := server.New(queue, server.Config{
		BaseIterations: *iterationsFlag,
		Limit:          *limitFlag,
		Goroutines:     goroutines(),
		MaxCells:       maxCellsPerRequest,
	})
	if err != nil {
		return err
	}
	if *gopsFlag {
		if err := agent.Listen(agent.Options{}); err != nil {
			return errors.Wrap(err, "starting gops agent")
		}
		defer agent.Close()
	}

	srv := &http.Server{Addr: *addrFlag, Handler: handler, ReadHeaderTimeout: readHeaderTimeout}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	klog.Infof("Serving on HTTP address %s", *addrFlag)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving HTTP")
	case <-ctx.Done():
	}
	klog.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// viewportFromFlags returns the viewport and parameters given on the command line.
func viewportFromFlags() (escape.Viewport, escape.Params) {
	v := escape.ViewportFromZoom(complex(*centerXFlag, *centerYFlag), *zoomFlag, *resXFlag, *resYFlag)
	p := escape.ParamsFromLimit(*limitFlag, escape.ScaleIterations(*iterationsFlag, *zoomFlag))
	return v, p
}
