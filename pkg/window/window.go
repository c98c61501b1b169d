// Package window implements the fixed-time window aggregator (FTW, spec
// component C3): online min/max/avg over fixed wall-clock windows, keeping
// the current in-progress window plus the last and previous completed
// windows.
package window

import "github.com/marmos91/edge-agent/pkg/signal"

// Function selects which statistic and which completed window to read.
type Function int

const (
	LastMin Function = iota
	LastMax
	LastAvg
	PrevMin
	PrevMax
	PrevAvg
)

// Stats is a completed window's min/max/avg.
type Stats[T signal.Numeric] struct {
	Min T
	Max T
	Avg T
}

type accumulator struct {
	min   float64
	max   float64
	sum   float64
	count int
}

func (a *accumulator) accumulate(v float64) {
	if a.count == 0 {
		a.min = v
		a.max = v
	} else {
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	a.sum += v
	a.count++
}

func (a *accumulator) complete() (min, max, avg float64, ok bool) {
	if a.count == 0 {
		return 0, 0, 0, false
	}
	return a.min, a.max, a.sum / float64(a.count), true
}

// Window is a single fixed-time window instance over one signal.
type Window[T signal.Numeric] struct {
	windowMs    uint64
	lastCalcMs  uint64
	initialized bool

	current accumulator

	lastCompleted *Stats[T]
	prevCompleted *Stats[T]
}

// New creates a Window with the given wall-clock width in milliseconds.
func New[T signal.Numeric](windowMs uint64) *Window[T] {
	return &Window[T]{windowMs: windowMs}
}

// WindowMs returns the configured window width.
func (w *Window[T]) WindowMs() uint64 {
	return w.windowMs
}

// Update feeds one sample (v, t) into the window, advancing the current /
// last / previous state machine per the spec's update rule. It reports
// whether this call advanced last_calc_ms (i.e. a window boundary was
// crossed and last/previous completed state changed). The first sample
// also reports true when t is non-zero, since it sets last_calc_ms from
// zero.
func (w *Window[T]) Update(v T, t uint64) (rolled bool) {
	fv := signal.ToFloat64(v)
	before := w.lastCalcMs

	switch {
	case !w.initialized:
		w.initialized = true
		w.lastCalcMs = t
		w.current = accumulator{}

	case t >= w.lastCalcMs+2*w.windowMs:
		w.lastCompleted = nil
		w.prevCompleted = w.snapshotCurrent()
		w.current = accumulator{}

		delta := t - w.lastCalcMs
		multiples := delta / w.windowMs
		w.lastCalcMs += multiples * w.windowMs

	case t >= w.lastCalcMs+w.windowMs:
		w.prevCompleted = w.lastCompleted
		w.lastCompleted = w.snapshotCurrent()
		w.current = accumulator{}
		w.lastCalcMs += w.windowMs
	}

	w.current.accumulate(fv)
	return w.lastCalcMs != before
}

func (w *Window[T]) snapshotCurrent() *Stats[T] {
	min, max, avg, ok := w.current.complete()
	if !ok {
		return nil
	}
	return &Stats[T]{
		Min: signal.TruncateToType[T](min),
		Max: signal.TruncateToType[T](max),
		Avg: signal.TruncateToType[T](avg),
	}
}

// ValueOf returns the requested statistic and whether it is available.
func (w *Window[T]) ValueOf(fn Function) (T, bool) {
	switch fn {
	case LastMin:
		if w.lastCompleted == nil {
			var zero T
			return zero, false
		}
		return w.lastCompleted.Min, true
	case LastMax:
		if w.lastCompleted == nil {
			var zero T
			return zero, false
		}
		return w.lastCompleted.Max, true
	case LastAvg:
		if w.lastCompleted == nil {
			var zero T
			return zero, false
		}
		return w.lastCompleted.Avg, true
	case PrevMin:
		if w.prevCompleted == nil {
			var zero T
			return zero, false
		}
		return w.prevCompleted.Min, true
	case PrevMax:
		if w.prevCompleted == nil {
			var zero T
			return zero, false
		}
		return w.prevCompleted.Max, true
	case PrevAvg:
		if w.prevCompleted == nil {
			var zero T
			return zero, false
		}
		return w.prevCompleted.Avg, true
	default:
		var zero T
		return zero, false
	}
}
