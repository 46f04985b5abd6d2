package miner

import (
	"corepow/internal/compute/progpow"
	"corepow/internal/config"
	"corepow/internal/jobstate"
	"corepow/internal/solver"
)

// PpMiner is the ProgPow back-end Miner façade, one worker per
// configured GPU.
type PpMiner struct {
	sharedData *jobstate.JobSharedData
	gpus       []config.GPUConfig

	workers []*solver.Worker
	broadcastChannels
}

// NewPpMiner allocates shared state sized to len(gpus) workers.
func NewPpMiner(gpus []config.GPUConfig) *PpMiner {
	return &PpMiner{
		sharedData: jobstate.NewJobSharedData(len(gpus)),
		gpus:       gpus,
	}
}

func (m *PpMiner) StartSolvers() error {
	for i, gc := range m.gpus {
		w := solver.NewWorker(i)
		m.workers = append(m.workers, w)
		m.control = append(m.control, w.Control)
		m.solverLoop = append(m.solverLoop, w.SolverLoop)
		m.stopped = append(m.stopped, w.Stopped)

		gpu := progpow.New(gc.DeviceID, gc.Driver)
		cpu := progpow.NewCPU()
		go solver.RunProgPow(w, m.sharedData, gpu, cpu)
	}
	return nil
}

// Notify installs a new job, pausing before the state write and
// resuming after (§4.1, spec.md:60). ProgPow has no epoch state, so
// there are no height-triggered side effects beyond pause/resume.
func (m *PpMiner) Notify(jobID uint32, height uint64, preNonce, postNonce []byte, difficulty uint64, _ [32]byte) error {
	heightChanged := height != m.sharedData.Height()
	if heightChanged {
		m.PauseSolvers()
	}
	m.sharedData.SetJob(jobstate.Job{
		JobID: jobID, Height: height, PreNonce: preNonce, PostNonce: postNonce, Difficulty: difficulty,
	})
	if heightChanged {
		m.ResumeSolvers()
	}
	return nil
}

// AddEpoch is a no-op for ProgPow: epochs are a RandomX-only concept.
func (m *PpMiner) AddEpoch(start, end uint64, seed [32]byte) {}

func (m *PpMiner) GetStats() []jobstate.SolverStats { return m.sharedData.Stats() }

func (m *PpMiner) GetSolutions() []jobstate.Solution { return m.sharedData.DrainSolutions() }

func (m *PpMiner) PauseSolvers()  { m.broadcast(jobstate.Pause) }
func (m *PpMiner) ResumeSolvers() { m.broadcast(jobstate.Resume) }
func (m *PpMiner) StopSolvers()   { m.broadcast(jobstate.Stop) }

func (m *PpMiner) WaitForSolverShutdown() { m.waitForShutdown() }
