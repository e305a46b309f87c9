package engine

import (
	"errors"
	"sync"
)

// ErrInitFailed indicates the engine refused to initialise.
var ErrInitFailed = errors.New("failed to initialize script engine")

// ErrNotAcquired indicates Release was called more often than Acquire.
var ErrNotAcquired = errors.New("script engine runtime not acquired")

// Runtime reference-counts the engine's process-wide lifecycle.
//
// The first Acquire initialises the engine and the last Release finalises
// it, so sessions that come and go never finalise an engine another session
// still uses. Runtime is owned by the embedding shell; sessions only hold a
// pointer to it.
type Runtime struct {
	api  API
	mu   sync.Mutex
	refs int
}

// NewRuntime wraps api. No engine call is made until the first Acquire.
func NewRuntime(api API) *Runtime {
	return &Runtime{api: api}
}

// API returns the wrapped engine.
func (r *Runtime) API() API {
	return r.api
}

// Acquire takes one reference, initialising the engine on the first one.
func (r *Runtime) Acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 && !r.api.Initialize() {
		return ErrInitFailed
	}
	r.refs++
	return nil
}

// Release drops one reference, finalising the engine when none remain.
func (r *Runtime) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		return ErrNotAcquired
	}
	r.refs--
	if r.refs == 0 {
		r.api.Finalize()
	}
	return nil
}

// Refs returns the number of outstanding references.
func (r *Runtime) Refs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs
}
