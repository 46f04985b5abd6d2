package miner

import (
	"log"

	"corepow/internal/compute/randomx"
	"corepow/internal/epoch"
	"corepow/internal/jobstate"
	"corepow/internal/solver"
	"corepow/internal/store"
)

// RxMiner is the RandomX back-end Miner façade.
type RxMiner struct {
	sharedData *jobstate.JobSharedData
	state      *randomx.State
	epochs     *epoch.Manager
	store      *store.Store

	threads int
	workers []*solver.Worker
	broadcastChannels
}

// NewRxMiner allocates shared state sized to threads workers; it does
// not start any goroutines (§4.1: "does not start threads"). st may be
// nil, in which case epoch seed history is kept in memory only.
func NewRxMiner(threads int, st *store.Store) *RxMiner {
	state := randomx.NewState()
	m := &RxMiner{
		sharedData: jobstate.NewJobSharedData(threads),
		state:      state,
		epochs:     epoch.New(state),
		store:      st,
		threads:    threads,
	}
	m.restoreEpochs()
	return m
}

// restoreEpochs rehydrates epoch.Manager's sequence from the badger
// seed history recorded by a prior run, so a restarted controller
// already knows about every epoch it was taught about before the
// restart, rather than idling until the stratum client resends them.
func (m *RxMiner) restoreEpochs() {
	if m.store == nil {
		return
	}
	records, err := m.store.ListSeeds()
	if err != nil {
		log.Printf("rxminer: failed to restore persisted epoch seeds: %v", err)
		return
	}
	for _, r := range records {
		m.epochs.AddEpoch(r.StartHeight, r.EndHeight, r.Seed)
	}
}

// StartSolvers spawns one goroutine per configured thread. Per §4.4,
// this does NOT eagerly initialize the dataset: workers spin on
// RxState.IsInitialized() being false until notify triggers the first
// epoch load, so mining can start at any height without seeds known in
// advance.
func (m *RxMiner) StartSolvers() error {
	for i := 0; i < m.threads; i++ {
		w := solver.NewWorker(i)
		m.workers = append(m.workers, w)
		m.control = append(m.control, w.Control)
		m.solverLoop = append(m.solverLoop, w.SolverLoop)
		m.stopped = append(m.stopped, w.Stopped)
		go solver.RunRandomX(w, m.sharedData, m.state, m.epochs)
	}
	return nil
}

// Notify installs a new job. On a height change it sequences
// pause → update state → swap_dataset → load_next_dataset → resume,
// per spec.md:60 ("first pauses all workers, updates state, performs
// any height-triggered side-effects..., then resumes") and the
// original's notify (pause_solvers before writing sd.job_id/sd.height).
// Pausing before the state write closes a race where a worker could
// observe the new height via shared.Height() and pass the §4.2 step 4
// validation gate before SwapDataset has actually installed the new
// epoch's dataset, reporting a solution computed against the stale one.
func (m *RxMiner) Notify(jobID uint32, height uint64, preNonce, postNonce []byte, difficulty uint64, seed [32]byte) error {
	heightChanged := height != m.sharedData.Height()
	if heightChanged {
		m.PauseSolvers()
	}
	m.sharedData.SetJob(jobstate.Job{
		JobID: jobID, Height: height, PreNonce: preNonce, PostNonce: postNonce, Difficulty: difficulty,
	})
	if heightChanged {
		if err := m.epochs.SwapDataset(height); err != nil {
			return err
		}
		m.epochs.LoadNextDataset()
		m.ResumeSolvers()
	}
	return nil
}

// AddEpoch registers an upcoming epoch (§4.1, RandomX only), and
// persists the height range and seed so a restarted process can
// rediscover it via restoreEpochs without needing to be retaught.
func (m *RxMiner) AddEpoch(start, end uint64, seed [32]byte) {
	m.epochs.AddEpoch(start, end, seed)
	if m.store == nil {
		return
	}
	if err := m.store.PutSeed(start, end, seed); err != nil {
		log.Printf("rxminer: failed to persist epoch seed: %v", err)
	}
}

func (m *RxMiner) GetStats() []jobstate.SolverStats { return m.sharedData.Stats() }

func (m *RxMiner) GetSolutions() []jobstate.Solution { return m.sharedData.DrainSolutions() }

func (m *RxMiner) PauseSolvers()  { m.broadcast(jobstate.Pause) }
func (m *RxMiner) ResumeSolvers() { m.broadcast(jobstate.Resume) }
func (m *RxMiner) StopSolvers()   { m.broadcast(jobstate.Stop) }

func (m *RxMiner) WaitForSolverShutdown() { m.waitForShutdown() }
