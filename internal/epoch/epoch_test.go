package epoch

import (
	"testing"
	"time"

	"corepow/internal/compute/randomx"
)

func TestAddEpochIsIdempotentBySeed(t *testing.T) {
	m := New(randomx.NewState())
	var seed [32]byte
	seed[0] = 1
	m.AddEpoch(0, 1000, seed)
	m.AddEpoch(0, 1000, seed)
	if len(m.Epochs()) != 1 {
		t.Fatalf("AddEpoch with the same seed twice should be a no-op, got %d epochs", len(m.Epochs()))
	}
}

func TestLoadNextDatasetTransitionsWaitingToLoaded(t *testing.T) {
	m := New(randomx.NewState())
	var seed [32]byte
	seed[0] = 7
	m.AddEpoch(0, 1000, seed)

	m.LoadNextDataset()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		epochs := m.Epochs()
		if epochs[0].State == Loaded {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("epoch never reached Loaded: %+v", m.Epochs())
}

func TestSwapDatasetMovesLoadedToRunning(t *testing.T) {
	m := New(randomx.NewState())
	var seed [32]byte
	seed[0] = 9
	m.AddEpoch(0, 1000, seed)
	m.LoadNextDataset()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && m.Epochs()[0].State != Loaded {
		time.Sleep(time.Millisecond)
	}
	if m.Epochs()[0].State != Loaded {
		t.Fatalf("setup failed: epoch never loaded")
	}

	if err := m.SwapDataset(500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Epochs()[0].State != Running {
		t.Fatalf("expected epoch to become Running, got %s", m.Epochs()[0].State)
	}
	if !m.RunningCovers(500) {
		t.Fatalf("RunningCovers(500) should be true once swapped")
	}
	if m.RunningCovers(1500) {
		t.Fatalf("RunningCovers(1500) should be false, no epoch covers that height")
	}
	if m.CurrentSeed() != seed {
		t.Fatalf("CurrentSeed should be updated by SwapDataset")
	}
}

func TestSwapDatasetOnFailedEpochIsFatal(t *testing.T) {
	m := New(randomx.NewState())
	var seed [32]byte
	seed[0] = 3
	m.AddEpoch(0, 1000, seed)
	m.mu.Lock()
	m.epochs[0].State = Failed
	m.epochs[0].FailReason = "simulated failure"
	m.mu.Unlock()

	if err := m.SwapDataset(500); err == nil {
		t.Fatalf("expected a fatal error when swapping into a Failed epoch")
	}
}

func TestOnlyOneLoaderRunsAtATime(t *testing.T) {
	m := New(randomx.NewState())
	var s1, s2 [32]byte
	s1[0], s2[0] = 1, 2
	m.AddEpoch(0, 1000, s1)
	m.AddEpoch(1000, 2000, s2)

	m.LoadNextDataset()
	m.LoadNextDataset() // should be a no-op: a loader is already busy or an epoch is already Loading/Loaded

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		epochs := m.Epochs()
		loadedOrLoading := 0
		for _, e := range epochs {
			if e.State == Loaded || e.State == Loading {
				loadedOrLoading++
			}
		}
		if loadedOrLoading >= 1 {
			if loadedOrLoading > 1 {
				t.Fatalf("more than one epoch reached Loading/Loaded concurrently: %+v", epochs)
			}
			if epochs[0].State == Loaded {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
}
