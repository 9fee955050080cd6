package escape

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"escapegrid/internal/release"
)

var errInjected = errors.New("injected driver failure")

// fakeDriver runs KernelSource semantics on the host and records every
// resource it hands out so tests can check that all of them come back.
type fakeDriver struct {
	info DeviceInfo
	// failAt names the session step that fails: "context", "queue", "build",
	// "alloc", "bind", "launch" or "read".
	failAt string

	mu       sync.Mutex
	opened   int
	sessions []*fakeSession
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{info: DeviceInfo{
		Name:             "fake",
		Class:            ClassGPU,
		MaxWorkGroupSize: 256,
		FP64:             true,
	}}
}

func (d *fakeDriver) Open(classes []DeviceClass) (Session, error) {
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	if len(classes) == 0 {
		return nil, errors.New("no classes")
	}
	s := &fakeSession{driver: d}
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
	if d.failAt == "context" {
		return nil, errInjected
	}
	s.acquire("context")
	if d.failAt == "queue" {
		s.Close()
		return nil, errInjected
	}
	s.acquire("command queue")
	return s, nil
}

// outstanding sums the resources not yet released over all sessions.
func (d *fakeDriver) outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sessions {
		n += s.live
	}
	return n
}

type fakeSession struct {
	driver *fakeDriver
	held   release.Stack
	live   int
	steps  []string

	options string
	guarded bool
	args    []any
	buf     []byte
	writes  []int
	stray   int
	global  int
	local   int
}

func (s *fakeSession) acquire(name string) {
	s.live++
	s.held.Push(name, func() { s.live-- })
}

func (s *fakeSession) fail(step string) error {
	s.steps = append(s.steps, step)
	if s.driver.failAt == step {
		return errInjected
	}
	return nil
}

func (s *fakeSession) Device() DeviceInfo { return s.driver.info }

func (s *fakeSession) Build(source, kernel, options string) error {
	s.acquire("program")
	if err := s.fail("build"); err != nil {
		return err
	}
	if kernel != KernelName || !strings.Contains(source, "__kernel void "+KernelName+"(") {
		return errors.New("unexpected program")
	}
	s.options = options
	s.guarded = strings.Contains(source, paddingGuard)
	s.acquire("kernel")
	return nil
}

func (s *fakeSession) Alloc(size int) error {
	if err := s.fail("alloc"); err != nil {
		return err
	}
	s.acquire("output buffer")
	s.buf = make([]byte, size)
	s.writes = make([]int, size)
	return nil
}

func (s *fakeSession) Bind(args ...any) error {
	if err := s.fail("bind"); err != nil {
		return err
	}
	s.args = args
	return nil
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	}
	panic(errors.Errorf("not a float: %T", v))
}

// Launch executes every work-item of the launch, including the padding past
// the last cell. Padded work-items are only stopped when the built source
// carries the padding guard; otherwise their writes land past the buffer and
// are counted in stray.
func (s *fakeSession) Launch(global, local int) error {
	if err := s.fail("launch"); err != nil {
		return err
	}
	if global%local != 0 {
		return errors.Errorf("global %d not a multiple of local %d", global, local)
	}
	s.global, s.local = global, local
	total := int(s.args[0].(int32))
	resx := int(s.args[1].(int32))
	p := Params{LimSq: asFloat(s.args[2]), Its: int(s.args[3].(int32))}
	dist, ulx, uly := asFloat(s.args[4]), asFloat(s.args[5]), asFloat(s.args[6])
	for index := 0; index < global; index++ {
		if s.guarded && index >= total {
			continue
		}
		if index >= len(s.buf) {
			s.stray++
			continue
		}
		x, y := pointAt(index%resx, index/resx, dist, ulx, uly)
		s.buf[index] = 0
		if Bounded(x, y, p) {
			s.buf[index] = 1
		}
		s.writes[index]++
	}
	return nil
}

func (s *fakeSession) Read(dst []byte) error {
	if err := s.fail("read"); err != nil {
		return err
	}
	copy(dst, s.buf)
	return nil
}

func (s *fakeSession) Close() {
	s.held.Unwind()
}
