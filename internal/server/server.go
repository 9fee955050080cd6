// Package server exposes membership grids over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"escapegrid/bitmap"
	"escapegrid/escape"
)

// Config tunes how requests are turned into evaluations.
type Config struct {
	// BaseIterations is scaled with the requested zoom.
	BaseIterations int
	// Limit is the escape radius.
	Limit float64
	// Goroutines packs the grid into bits.
	Goroutines int
	// MaxCells bounds resx*resy per request.
	MaxCells int
}

// DefaultConfig mirrors the command line defaults.
func DefaultConfig() Config {
	return Config{BaseIterations: 100, Limit: 2, Goroutines: 1, MaxCells: 4096 * 4096}
}

type contextGenerator interface {
	ComputeContext(ctx context.Context, v escape.Viewport, p escape.Params) ([]bool, error)
}

// Server answers /fractal requests with grids computed by a generator.
type Server struct {
	gen escape.Generator
	cfg Config
	mux *http.ServeMux
}

// Response is the JSON body of a successful /fractal request. Image holds the
// grid packed by bitmap.Marshal.
type Response struct {
	ResX, ResY int
	Image      []byte
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// New returns a server computing grids with gen.
func New(gen escape.Generator, cfg Config) (*Server, error) {
	if gen == nil {
		return nil, errors.New("server: nil generator")
	}
	if cfg.BaseIterations < 1 || !(cfg.Limit > 0) || cfg.Goroutines < 1 || cfg.MaxCells < 1 {
		return nil, errors.Errorf("server: invalid config %+v", cfg)
	}
	s := &Server{gen: gen, cfg: cfg, mux: http.NewServeMux()}
	s.mux.HandleFunc("/fractal", s.handleFractal)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// request is a parsed /fractal query.
type request struct {
	center     complex128
	zoom       float64
	resx, resy int
}

func parseRequest(r *http.Request) (request, error) {
	var req request
	q := r.URL.Query()
	get := func(name string) (string, error) {
		v := q.Get(name)
		if v == "" {
			return "", errors.Errorf("missing parameter %q", name)
		}
		return v, nil
	}
	floats := make(map[string]float64, 3)
	for _, name := range []string{"centerx", "centery", "zoom"} {
		raw, err := get(name)
		if err != nil {
			return req, err
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, errors.Wrapf(err, "parameter %q", name)
		}
		floats[name] = f
	}
	ints := make(map[string]int, 2)
	for _, name := range []string{"resx", "resy"} {
		raw, err := get(name)
		if err != nil {
			return req, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.Wrapf(err, "parameter %q", name)
		}
		ints[name] = n
	}
	req.center = complex(floats["centerx"], floats["centery"])
	req.zoom = floats["zoom"]
	req.resx, req.resy = ints["resx"], ints["resy"]
	if !(req.zoom > 0) {
		return req, errors.Errorf("zoom %g must be positive", req.zoom)
	}
	return req, nil
}

func (s *Server) handleFractal(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	start := time.Now()
	if r.Method != http.MethodGet {
		s.writeError(w, id, http.StatusMethodNotAllowed, errors.Errorf("method %s not allowed", r.Method))
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		s.writeError(w, id, http.StatusBadRequest, err)
		return
	}
	if req.resx > 0 && req.resy > 0 && req.resx > s.cfg.MaxCells/req.resy {
		s.writeError(w, id, http.StatusBadRequest,
			errors.Errorf("resolution %dx%d exceeds %d cells", req.resx, req.resy, s.cfg.MaxCells))
		return
	}

	v := escape.ViewportFromZoom(req.center, req.zoom, req.resx, req.resy)
	if err := v.Validate(); err != nil {
		s.writeError(w, id, http.StatusBadRequest, err)
		return
	}
	p := escape.ParamsFromLimit(s.cfg.Limit, escape.ScaleIterations(s.cfg.BaseIterations, req.zoom))
	var grid []bool
	if cg, ok := s.gen.(contextGenerator); ok {
		grid, err = cg.ComputeContext(r.Context(), v, p)
	} else {
		grid, err = s.gen.Compute(v, p)
	}
	if err != nil {
		s.writeError(w, id, statusFor(err), err)
		return
	}

	resp := Response{ResX: req.resx, ResY: req.resy}
	resp.Image, err = bitmap.MarshalParallel(grid, s.cfg.Goroutines)
	if err != nil {
		s.writeError(w, id, http.StatusInternalServerError, err)
		return
	}
	payload, err := sonic.ConfigStd.Marshal(resp)
	if err != nil {
		s.writeError(w, id, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		klog.V(1).Infof("[%s] writing response: %v", id, err)
		return
	}
	klog.V(1).Infof("[%s] %dx%d zoom %g its %d: %s in %s", id, req.resx, req.resy, req.zoom, p.Its,
		humanize.Bytes(uint64(len(payload))), time.Since(start))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, escape.ErrInvalidParameters):
		return http.StatusBadRequest
	case errors.Is(err, escape.ErrQueueFull), errors.Is(err, escape.ErrInitialization):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, id string, status int, err error) {
	if status >= http.StatusInternalServerError {
		klog.Errorf("[%s] %v", id, err)
	} else {
		klog.V(1).Infof("[%s] %d: %v", id, status, err)
	}
	body, merr := sonic.ConfigStd.Marshal(errorResponse{Error: err.Error(), RequestID: id})
	if merr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
