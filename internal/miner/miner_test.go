package miner

import (
	"testing"
	"time"

	"corepow/internal/config"
)

func TestRxMinerLifecycle(t *testing.T) {
	m := NewRxMiner(1, nil)
	if err := m.StartSolvers(); err != nil {
		t.Fatalf("StartSolvers: %v", err)
	}

	var seedA [32]byte
	seedA[0] = 1
	m.AddEpoch(0, 1000, seedA)
	m.AddEpoch(0, 1000, seedA) // idempotent by seed

	if err := m.Notify(1, 500, []byte{0x00}, []byte{0x00}, 1, seedA); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.GetStats()[0].Iterations > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if m.GetStats()[0].Iterations == 0 {
		t.Fatalf("worker never mined after a RunningCovers epoch was installed")
	}

	m.StopSolvers()
	done := make(chan struct{})
	go func() {
		m.WaitForSolverShutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("WaitForSolverShutdown did not return in time")
	}
}

func TestPpMinerLifecycle(t *testing.T) {
	m := NewPpMiner([]config.GPUConfig{{DeviceID: 0, Driver: "opencl"}})
	if err := m.StartSolvers(); err != nil {
		t.Fatalf("StartSolvers: %v", err)
	}
	if err := m.Notify(1, 500, []byte{0x00}, []byte{0x00}, 1, [32]byte{}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.GetStats()[0].Iterations > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if m.GetStats()[0].Iterations == 0 {
		t.Fatalf("worker never mined")
	}

	m.StopSolvers()
	done := make(chan struct{})
	go func() {
		m.WaitForSolverShutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("WaitForSolverShutdown did not return in time")
	}
}

func TestCuckooMinerNotifyIdempotentOnUnchangedHeight(t *testing.T) {
	m := NewCuckooMiner([]config.PluginConfig{{PluginName: "cuckaroo29_cpu_compat"}})
	if err := m.StartSolvers(); err != nil {
		t.Fatalf("StartSolvers: %v", err)
	}
	if err := m.Notify(1, 500, []byte{0x00}, []byte{0x00}, 1, [32]byte{}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	// Same height again: must not pause/resume (no observable effect
	// other than field update), matching §8's idempotence property.
	if err := m.Notify(2, 500, []byte{0x00}, []byte{0x00}, 2, [32]byte{}); err != nil {
		t.Fatalf("second Notify: %v", err)
	}
	if j := m.sharedData.Job(); j.Height != 500 || j.JobID != 2 || j.Difficulty != 2 {
		t.Fatalf("same-height Notify should update job fields in place, got %+v", j)
	}

	m.StopSolvers()
	done := make(chan struct{})
	go func() {
		m.WaitForSolverShutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("WaitForSolverShutdown did not return in time")
	}
}
