package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwindOrder(t *testing.T) {
	var s Stack
	var got []string
	for _, name := range []string{"context", "queue", "program", "kernel", "buffer"} {
		s.Push(name, func() { got = append(got, name) })
	}
	require.Equal(t, 5, s.Len())
	assert.Equal(t, []string{"context", "queue", "program", "kernel", "buffer"}, s.Names())

	s.Unwind()
	assert.Equal(t, []string{"buffer", "kernel", "program", "queue", "context"}, got)
	assert.Zero(t, s.Len())

	s.Unwind()
	assert.Len(t, got, 5, "second unwind must not release again")
}

func TestUnwindSurvivesPanic(t *testing.T) {
	var s Stack
	released := 0
	s.Push("first", func() { released++ })
	s.Push("broken", func() { panic("driver crashed") })
	s.Push("last", func() { released++ })

	assert.NotPanics(t, s.Unwind)
	assert.Equal(t, 2, released)
	assert.Zero(t, s.Len())
}

func TestPushNil(t *testing.T) {
	var s Stack
	s.Push("nothing", nil)
	assert.Zero(t, s.Len())
}
