package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeMonitor struct {
	errs    []error
	panics  []any
	flushed bool
}

func (f *fakeMonitor) CaptureException(err error, _ map[string]string) { f.errs = append(f.errs, err) }
func (f *fakeMonitor) CapturePanic(v any)                              { f.panics = append(f.panics, v) }
func (f *fakeMonitor) Flush(time.Duration)                             { f.flushed = true }

func TestCaptureAndRecover(t *testing.T) {
	f := &fakeMonitor{}
	Init(f)
	defer Init(NopMonitor{})

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"component": "test"})
	assert.Len(t, f.errs, 1)

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	assert.Equal(t, []any{"bad"}, f.panics)
	assert.True(t, f.flushed)

	Init(nil)
	CaptureException(errors.New("still routed"), nil)
	assert.Len(t, f.errs, 2)
}
