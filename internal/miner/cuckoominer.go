package miner

import (
	"corepow/internal/compute/cuckoo"
	"corepow/internal/config"
	"corepow/internal/jobstate"
	"corepow/internal/solver"
)

// CuckooMiner is the Cuckoo Cycle back-end Miner façade, one worker
// per configured solver plugin.
type CuckooMiner struct {
	sharedData *jobstate.JobSharedData
	plugins    []config.PluginConfig

	workers []*solver.Worker
	broadcastChannels
}

// NewCuckooMiner allocates shared state sized to len(plugins) workers.
func NewCuckooMiner(plugins []config.PluginConfig) *CuckooMiner {
	return &CuckooMiner{
		sharedData: jobstate.NewJobSharedData(len(plugins)),
		plugins:    plugins,
	}
}

func (m *CuckooMiner) StartSolvers() error {
	for i, pc := range m.plugins {
		w := solver.NewWorker(i)
		m.workers = append(m.workers, w)
		m.control = append(m.control, w.Control)
		m.solverLoop = append(m.solverLoop, w.SolverLoop)
		m.stopped = append(m.stopped, w.Stopped)

		var params cuckoo.SolverParams
		for k, v := range pc.Parameters {
			cuckoo.ResolveParam(&params, k, v)
		}
		ctx := cuckoo.NewSolverContext(pc.PluginName, params)
		go solver.RunCuckoo(w, m.sharedData, ctx, pc.PluginName)
	}
	return nil
}

// Notify installs a new job, pausing before the state write and
// resuming after (§4.1, spec.md:60). Cuckoo has no epoch state.
func (m *CuckooMiner) Notify(jobID uint32, height uint64, preNonce, postNonce []byte, difficulty uint64, _ [32]byte) error {
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

// AddEpoch is a no-op for Cuckoo: epochs are a RandomX-only concept.
func (m *CuckooMiner) AddEpoch(start, end uint64, seed [32]byte) {}

func (m *CuckooMiner) GetStats() []jobstate.SolverStats { return m.sharedData.Stats() }

func (m *CuckooMiner) GetSolutions() []jobstate.Solution { return m.sharedData.DrainSolutions() }

func (m *CuckooMiner) PauseSolvers()  { m.broadcast(jobstate.Pause) }
func (m *CuckooMiner) ResumeSolvers() { m.broadcast(jobstate.Resume) }
func (m *CuckooMiner) StopSolvers()   { m.broadcast(jobstate.Stop) }

func (m *CuckooMiner) WaitForSolverShutdown() { m.waitForShutdown() }
