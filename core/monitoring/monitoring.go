// Package monitoring forwards unexpected errors to an external error
// tracker. Expected planning outcomes such as infeasibility are never
// reported here.
package monitoring

import (
	"sync/atomic"
	"time"
)

// Monitor receives unexpected failures.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

type holder struct{ m Monitor }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{NopMonitor{}}) }

// Init installs m as the process-wide monitor. A nil m is ignored.
func Init(m Monitor) {
	if m != nil {
		current.Store(&holder{m})
	}
}

func active() Monitor { return current.Load().m }

// CaptureException reports err with optional tags. Nil errors are ignored.
func CaptureException(err error, tags map[string]string) {
	if err != nil {
		active().CaptureException(err, tags)
	}
}

// Recover reports a panic, flushes and re-panics. It must be deferred
// directly.
func Recover() {
	if r := recover(); r != nil {
		m := active()
		m.CapturePanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush waits up to d for buffered events to be sent.
func Flush(d time.Duration) { active().Flush(d) }
