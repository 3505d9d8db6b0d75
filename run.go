package guidance

import (
	"context"
	"sync"

	"github.com/arloliu/guidance/internal/lease"
	"github.com/arloliu/guidance/internal/worker"
	"github.com/arloliu/guidance/link"
)

// run is the state of one Start/Stop cycle.
//
// Goroutines of a run only touch their own run, so a goroutine that outlives
// a timed-out Stop cannot cancel or report into the next Start.
type run struct {
	// loopCtx is cancelled only after shutdown, so an in-flight sample can
	// still publish its status line.
	loopCtx  context.Context
	stopLoop context.CancelFunc

	// monitorCtx bounds the link monitor, the lease keep-alive and hooks.
	monitorCtx  context.Context
	stopMonitor context.CancelFunc

	exit *worker.ExitFlag
	wg   sync.WaitGroup
	done chan struct{}

	heartbeats *link.HeartbeatSubscriber
	loop       *worker.Loop
	lease      *lease.Lease

	mu  sync.Mutex
	err error
}

func newRun(exit *worker.ExitFlag, heartbeats *link.HeartbeatSubscriber, loop *worker.Loop, authority *lease.Lease) *run {
	r := &run{
		exit:       exit,
		done:       make(chan struct{}),
		heartbeats: heartbeats,
		loop:       loop,
		lease:      authority,
	}
	r.loopCtx, r.stopLoop = context.WithCancel(context.Background())
	r.monitorCtx, r.stopMonitor = context.WithCancel(context.Background())

	return r
}

// setErr records the first error that ended the run.
func (r *run) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err == nil {
		r.err = err
	}
}

// Err returns the error that ended the run, if any.
func (r *run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}
