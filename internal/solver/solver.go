// Package solver implements the Solver Worker (§4.2): one long-lived
// goroutine per logical device, running the inner mining loop,
// respecting control messages, and publishing solutions and stats into
// a shared jobstate.JobSharedData.
//
// Each back-end's work quantum differs by orders of magnitude (a
// RandomX hash batch, a ProgPow GPU batch, a Cuckoo graph round), so
// per the design notes this package does not unify the inner loops
// into one generic function — it shares only the control-message and
// stats-bookkeeping plumbing every worker needs, grounded on the
// reference pack's per-backend solver_thread functions and the
// teacher's goroutine/select/ticker worker idiom.
package solver

import (
	"time"

	"corepow/internal/jobstate"
)

// pauseSleep is the 100 microsecond sleep a paused or dataset-starved
// worker takes between checks (§4.2 step 2, §5 suspension points).
const pauseSleep = 100 * time.Microsecond

// Worker holds one solver's identity and its three channels: a control
// channel and a solver-loop channel (kept distinct because a
// higher-level caller may want to reach only the inner loop), and an
// outbound stopped channel the façade waits on during shutdown.
type Worker struct {
	Instance int

	Control    chan jobstate.ControlMessage
	SolverLoop chan jobstate.ControlMessage
	Stopped    chan jobstate.ControlMessage
}

// NewWorker allocates a worker's channels. Channels are small buffered
// channels so a send from the façade never blocks on a slow or paused
// worker.
func NewWorker(instance int) *Worker {
	return &Worker{
		Instance:   instance,
		Control:    make(chan jobstate.ControlMessage, 4),
		SolverLoop: make(chan jobstate.ControlMessage, 4),
		Stopped:    make(chan jobstate.ControlMessage, 1),
	}
}

// lifecycle tracks the Paused/Running/Stopped state machine (§4.2) for
// one worker across both its inbound channels.
type lifecycle struct {
	paused  bool
	stopped bool
}

// drain applies every pending control message on ch without blocking,
// per §4.2 step 1's "non-blocking drain" requirement and the table of
// transitions (Stop/Pause/Resume/other).
func (l *lifecycle) drain(ch <-chan jobstate.ControlMessage) {
	for {
		select {
		case msg := <-ch:
			switch msg.Kind {
			case jobstate.Stop:
				l.stopped = true
			case jobstate.Pause:
				l.paused = true
			case jobstate.Resume:
				l.paused = false
			}
		default:
			return
		}
	}
}

// pollControl drains both the control and solver-loop channels, since
// a Stop or Pause sent on either must be observed.
func (w *Worker) pollControl(l *lifecycle) {
	l.drain(w.Control)
	l.drain(w.SolverLoop)
}

// signalStopped sends the terminal SolverStopped message exactly once
// (§8 invariant: "every worker has emitted SolverStopped exactly once").
func (w *Worker) signalStopped() {
	w.Stopped <- jobstate.ControlMessage{Kind: jobstate.SolverStopped, Instance: w.Instance}
}

// hashesPerSec computes the throughput figure used by every back-end's
// stats write (§4.2 step 10). On a zero or negative elapsed time it
// reports workDone directly rather than dividing by zero, matching the
// documented tie-break (§4.2: "On divide-by-zero elapsed time, report
// hashes_per_sec = work_per_call") and guarding the bug the source had
// (§9 design note: "the source occasionally divides by end-start
// without the max(1,...) guard; implementations must guard").
func hashesPerSec(workDone uint64, startMillis, endMillis int64) uint64 {
	elapsed := endMillis - startMillis
	if elapsed <= 0 {
		return workDone
	}
	return workDone * 1000 / uint64(elapsed)
}
