package jobstate

import "testing"

func TestSetJobReportsHeightChange(t *testing.T) {
	d := NewJobSharedData(1)
	if changed := d.SetJob(Job{Height: 0, Difficulty: 1}); changed {
		t.Fatalf("first SetJob at height 0 should not report a change from the zero value... got %v", changed)
	}
	if changed := d.SetJob(Job{Height: 500, Difficulty: 1}); !changed {
		t.Fatalf("SetJob to a new height must report heightChanged=true")
	}
	if changed := d.SetJob(Job{Height: 500, Difficulty: 2}); changed {
		t.Fatalf("SetJob with same height must report heightChanged=false (idempotent on workers)")
	}
}

func TestAppendAndDrainSolutions(t *testing.T) {
	d := NewJobSharedData(1)
	d.AppendSolution(Solution{ID: 1, Nonce: 10})
	d.AppendSolution(Solution{ID: 1, Nonce: 11})
	got := d.DrainSolutions()
	if len(got) != 2 {
		t.Fatalf("expected 2 solutions, got %d", len(got))
	}
	if again := d.DrainSolutions(); again != nil {
		t.Fatalf("second drain should be empty, got %v", again)
	}
}

func TestStatsIsolatedPerInstance(t *testing.T) {
	d := NewJobSharedData(2)
	d.MutateStats(0, func(s *SolverStats) { s.SetPluginName("randomx_cpu"); s.Iterations = 5 })
	d.MutateStats(1, func(s *SolverStats) { s.SetPluginName("progpow_gpu"); s.Iterations = 9 })

	stats := d.Stats()
	if stats[0].PluginName() != "randomx_cpu" || stats[0].Iterations != 5 {
		t.Fatalf("worker 0 stats clobbered: %+v", stats[0])
	}
	if stats[1].PluginName() != "progpow_gpu" || stats[1].Iterations != 9 {
		t.Fatalf("worker 1 stats clobbered: %+v", stats[1])
	}
}

func TestSolverStatsNameRoundTrip(t *testing.T) {
	var s SolverStats
	s.SetDeviceName("NVIDIA RTX 4090")
	if got := s.DeviceName(); got != "NVIDIA RTX 4090" {
		t.Fatalf("DeviceName() = %q, want %q", got, "NVIDIA RTX 4090")
	}
	s.SetErrorReason("dataset load failed")
	if !s.HasErrored {
		t.Fatalf("SetErrorReason should set HasErrored")
	}
	if got := s.ErrorReason(); got != "dataset load failed" {
		t.Fatalf("ErrorReason() = %q", got)
	}
}
