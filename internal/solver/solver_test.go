package solver

import (
	"testing"

	"corepow/internal/jobstate"
)

func TestHashesPerSecNormalCase(t *testing.T) {
	got := hashesPerSec(100, 1000, 1100)
	if got != 1000 {
		t.Fatalf("hashesPerSec = %d, want 1000", got)
	}
}

func TestHashesPerSecZeroElapsedReportsWorkDone(t *testing.T) {
	got := hashesPerSec(524288, 1000, 1000)
	if got != 524288 {
		t.Fatalf("hashesPerSec with zero elapsed = %d, want work done (524288)", got)
	}
}

func TestHashesPerSecNegativeElapsedReportsWorkDone(t *testing.T) {
	got := hashesPerSec(50, 1000, 999)
	if got != 50 {
		t.Fatalf("hashesPerSec with negative elapsed = %d, want work done (50)", got)
	}
}

func TestLifecycleDrainAppliesTransitionsInOrder(t *testing.T) {
	var l lifecycle
	l.paused = true
	ch := make(chan jobstate.ControlMessage, 4)
	ch <- jobstate.ControlMessage{Kind: jobstate.Resume}
	ch <- jobstate.ControlMessage{Kind: jobstate.Pause}
	l.drain(ch)
	if !l.paused {
		t.Fatalf("last message in the channel was Pause, lifecycle should end paused")
	}
}

func TestLifecycleStopSetsStopped(t *testing.T) {
	var l lifecycle
	ch := make(chan jobstate.ControlMessage, 1)
	ch <- jobstate.ControlMessage{Kind: jobstate.Stop}
	l.drain(ch)
	if !l.stopped {
		t.Fatalf("Stop message should set stopped")
	}
}

func TestLifecycleUnknownKindIsIgnored(t *testing.T) {
	var l lifecycle
	l.paused = false
	ch := make(chan jobstate.ControlMessage, 1)
	ch <- jobstate.ControlMessage{Kind: jobstate.SolverStopped}
	l.drain(ch)
	if l.paused || l.stopped {
		t.Fatalf("SolverStopped received on an inbound channel should be ignored")
	}
}
