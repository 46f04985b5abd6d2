package solver

import (
	"testing"
	"time"

	"corepow/internal/compute/cuckoo"
	"corepow/internal/jobstate"
)

func TestRunCuckooEmitsSolutionsAndStopsCleanly(t *testing.T) {
	shared := jobstate.NewJobSharedData(1)
	shared.SetJob(jobstate.Job{JobID: 1, Height: 500, Difficulty: 1})

	w := NewWorker(0)
	ctx := cuckoo.NewSolverContext("cuckaroo29_cpu_compat", cuckoo.SolverParams{EdgeBits: 29})

	done := make(chan struct{})
	go func() {
		RunCuckoo(w, shared, ctx, "cuckaroo29_cpu_compat")
		close(done)
	}()

	w.Control <- jobstate.ControlMessage{Kind: jobstate.Resume}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if shared.Stats()[0].Iterations > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if shared.Stats()[0].Iterations == 0 {
		t.Fatalf("worker never recorded any iterations")
	}

	w.Control <- jobstate.ControlMessage{Kind: jobstate.Stop}
	select {
	case msg := <-w.Stopped:
		if msg.Kind != jobstate.SolverStopped || msg.Instance != 0 {
			t.Fatalf("unexpected stopped message: %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not signal SolverStopped in time")
	}
	<-done
}

func TestRunCuckooDropsStaleSolutions(t *testing.T) {
	shared := jobstate.NewJobSharedData(1)
	shared.SetJob(jobstate.Job{JobID: 1, Height: 500, Difficulty: 1})

	w := NewWorker(0)
	ctx := cuckoo.NewSolverContext("cuckaroo29_cpu_compat", cuckoo.SolverParams{EdgeBits: 29})

	go RunCuckoo(w, shared, ctx, "cuckaroo29_cpu_compat")
	w.Control <- jobstate.ControlMessage{Kind: jobstate.Resume}

	// Move to a new height while a search round may be in flight.
	// Solutions appended before the change were found against the then
	// current job and are drained here; a job_id=1 solution appended
	// after the change would be a stale result that escaped the
	// validation window.
	time.Sleep(time.Millisecond)
	shared.DrainSolutions()
	shared.SetJob(jobstate.Job{JobID: 2, Height: 600, Difficulty: 1})

	time.Sleep(50 * time.Millisecond)
	w.Control <- jobstate.ControlMessage{Kind: jobstate.Stop}
	select {
	case <-w.Stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not stop in time")
	}

	for _, sol := range shared.DrainSolutions() {
		if sol.ID == 1 {
			t.Fatalf("a solution for the superseded job_id=1 reached the client")
		}
	}
}
