// Package miner implements the three back-end Miner façades (§4.4) —
// RxMiner, PpMiner, CuckooMiner — behind a common Miner interface
// (§4.1), each owning the solver workers and shared state for one
// algorithm.
//
// Grounded directly on the original's core::miner::Miner trait and the
// three *-miner/src/miner.rs implementations: new/start_solvers/notify
// (pause-write-resume around a height change)/get_stats/get_solutions
// (drain-and-return)/pause_solvers/resume_solvers/stop_solvers (both
// broadcast to control and solver-loop channels)/wait_for_solver_shutdown.
package miner

import (
	"corepow/internal/jobstate"
)

// Miner is the capability set every back-end exposes (§4.1).
type Miner interface {
	// StartSolvers spawns workers; each worker is born paused.
	StartSolvers() error

	// Notify atomically installs a new job. If height differs from the
	// stored height the Miner pauses all workers, updates state,
	// performs any height-triggered side effects, then resumes.
	Notify(jobID uint32, height uint64, preNonce, postNonce []byte, difficulty uint64, seed [32]byte) error

	// AddEpoch registers an upcoming epoch; only meaningful for RxMiner,
	// a no-op elsewhere. Idempotent by seed.
	AddEpoch(start, end uint64, seed [32]byte)

	GetStats() []jobstate.SolverStats
	GetSolutions() []jobstate.Solution

	PauseSolvers()
	ResumeSolvers()
	StopSolvers()
	WaitForSolverShutdown()
}

// broadcastChannels is the control_txs/solver_loop_txs/solver_stopped_rxs
// bookkeeping shared by all three façades.
type broadcastChannels struct {
	control    []chan jobstate.ControlMessage
	solverLoop []chan jobstate.ControlMessage
	stopped    []chan jobstate.ControlMessage
}

func (b *broadcastChannels) broadcast(kind jobstate.ControlMessageKind) {
	for _, ch := range b.control {
		select {
		case ch <- jobstate.ControlMessage{Kind: kind}:
		default:
		}
	}
	for _, ch := range b.solverLoop {
		select {
		case ch <- jobstate.ControlMessage{Kind: kind}:
		default:
		}
	}
}

// waitForShutdown blocks until every worker has sent SolverStopped.
func (b *broadcastChannels) waitForShutdown() {
	for _, ch := range b.stopped {
		<-ch
	}
}

var (
	_ Miner = (*RxMiner)(nil)
	_ Miner = (*PpMiner)(nil)
	_ Miner = (*CuckooMiner)(nil)
)
