package store

import (
	"testing"

	"corepow/internal/jobstate"
	"corepow/internal/solution"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndHasSolution(t *testing.T) {
	s := openTestStore(t)
	id, err := solution.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	r := solution.NewReport(id.Address[:], 100, 5, "randomx", jobstate.Solution{ID: 5, Nonce: 1})
	if err := r.Sign(id.PrivateKey); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	found, err := s.HasSolution(5)
	if err != nil {
		t.Fatalf("HasSolution: %v", err)
	}
	if found {
		t.Fatalf("expected no solution recorded yet")
	}

	if err := s.PutSolution(r); err != nil {
		t.Fatalf("PutSolution: %v", err)
	}

	found, err = s.HasSolution(5)
	if err != nil {
		t.Fatalf("HasSolution: %v", err)
	}
	if !found {
		t.Fatalf("expected solution to be recorded")
	}

	got, err := s.GetSolution(5)
	if err != nil {
		t.Fatalf("GetSolution: %v", err)
	}
	if got.Nonce != 1 {
		t.Fatalf("expected nonce 1, got %d", got.Nonce)
	}
}

func TestPutAndGetSeed(t *testing.T) {
	s := openTestStore(t)
	seed := [32]byte{9, 9, 9}
	if err := s.PutSeed(1000, 2000, seed); err != nil {
		t.Fatalf("PutSeed: %v", err)
	}
	end, got, err := s.GetSeed(1000)
	if err != nil {
		t.Fatalf("GetSeed: %v", err)
	}
	if end != 2000 || got != seed {
		t.Fatalf("expected (2000, %x), got (%d, %x)", seed, end, got)
	}
}

func TestPruneSolutionsRemovesOldEntries(t *testing.T) {
	s := openTestStore(t)
	id, err := solution.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	for jobID := uint64(1); jobID <= 5; jobID++ {
		r := solution.NewReport(id.Address[:], 100, jobID, "randomx", jobstate.Solution{ID: jobID, Nonce: jobID})
		if err := r.Sign(id.PrivateKey); err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if err := s.PutSolution(r); err != nil {
			t.Fatalf("PutSolution: %v", err)
		}
	}

	if err := s.PruneSolutions(2, 5); err != nil {
		t.Fatalf("PruneSolutions: %v", err)
	}

	for jobID := uint64(1); jobID <= 3; jobID++ {
		found, err := s.HasSolution(jobID)
		if err != nil {
			t.Fatalf("HasSolution(%d): %v", jobID, err)
		}
		if found {
			t.Fatalf("expected job %d to have been pruned", jobID)
		}
	}
	for jobID := uint64(4); jobID <= 5; jobID++ {
		found, err := s.HasSolution(jobID)
		if err != nil {
			t.Fatalf("HasSolution(%d): %v", jobID, err)
		}
		if !found {
			t.Fatalf("expected job %d to still be recorded", jobID)
		}
	}
}
