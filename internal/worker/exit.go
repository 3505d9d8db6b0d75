package worker

import "sync/atomic"

// ExitFlag is a types.ExitSignal backed by an atomic boolean.
//
// The zero value is ready to use and reports no exit request.
type ExitFlag struct {
	requested atomic.Bool
}

// Request asks every loop observing the flag to stop after its current iteration.
func (f *ExitFlag) Request() {
	f.requested.Store(true)
}

// IsExitRequested reports whether Request has been called.
func (f *ExitFlag) IsExitRequested() bool {
	return f.requested.Load()
}
