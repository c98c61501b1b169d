// Package customfunc implements the custom function host (CFH, spec
// component C7): a by-name registry of eval.CustomFunctionCallbacks that
// the expression evaluator looks up during CUSTOM node evaluation.
package customfunc

import (
	"sync"

	"github.com/marmos91/edge-agent/pkg/eval"
)

// Host is a concurrency-safe by-name registry of custom functions. The
// zero value is not usable; construct with New.
type Host struct {
	mu  sync.RWMutex
	fns map[string]eval.CustomFunctionCallbacks
}

// New constructs an empty Host.
func New() *Host {
	return &Host{fns: make(map[string]eval.CustomFunctionCallbacks)}
}

// Register installs fn under name, replacing any previous registration.
// The start command calls it at startup for the built-in functions.
func (h *Host) Register(name string, fn eval.CustomFunctionCallbacks) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns[name] = fn
}

// Lookup implements eval.CustomFunctionHost. An unknown name reports
// ok=false; the evaluator turns that into ErrNotImplemented for the
// referencing expression branch, while the rest of the matrix installs
// normally.
func (h *Host) Lookup(name string) (eval.CustomFunctionCallbacks, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.fns[name]
	return fn, ok
}

// Names returns every currently registered function name.
func (h *Host) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.fns))
	for name := range h.fns {
		names = append(names, name)
	}
	return names
}
