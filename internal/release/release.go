// Package release keeps track of acquired resources and frees them in reverse
// acquisition order.
package release

import "k8s.io/klog/v2"

type entry struct {
	name string
	fn   func()
}

// Stack holds release functions for resources acquired so far.
// The zero value is ready to use. A Stack is not safe for concurrent use.
type Stack struct {
	entries []entry
}

// Push registers fn as the release function of the named resource. It must be
// called right after the resource was acquired successfully.
func (s *Stack) Push(name string, fn func()) {
	if fn == nil {
		return
	}
	s.entries = append(s.entries, entry{name: name, fn: fn})
}

// Len reports how many resources are still held.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Names lists the held resources in acquisition order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

// Unwind releases every held resource, most recent first. Calling it again is
// a no-op. A release function that panics does not stop the remaining ones.
func (s *Stack) Unwind() {
	for len(s.entries) > 0 {
		last := s.entries[len(s.entries)-1]
		s.entries = s.entries[:len(s.entries)-1]
		runRelease(last)
	}
}

func runRelease(e entry) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("releasing %s: %v", e.name, r)
		}
	}()
	klog.V(2).Infof("releasing %s", e.name)
	e.fn()
}
