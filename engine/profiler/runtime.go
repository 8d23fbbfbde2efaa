package profiler

import (
	"runtime"
	"time"
)

func MemoryUsage() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}

func MemoryAllocs() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Mallocs
}

func NumGoroutine() int { return runtime.NumGoroutine() }

// EMA is an exponential moving average of durations. The first sample is
// taken as is.
type EMA struct {
	Alpha  float64
	value  float64
	primed bool
}

func NewEMA(alpha float64) *EMA {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.1
	}
	return &EMA{Alpha: alpha}
}

func (e *EMA) Observe(d time.Duration) time.Duration {
	if !e.primed {
		e.value, e.primed = float64(d), true
	} else {
		e.value += e.Alpha * (float64(d) - e.value)
	}
	return e.Value()
}

func (e *EMA) Value() time.Duration { return time.Duration(e.value) }

func (e *EMA) Reset() { e.value, e.primed = 0, false }
