// Package epoch implements the RandomX-only Epoch Dataset Manager
// (§4.3): it tracks which seed is in effect over which height range,
// precomputes the next dataset in the background, and atomically swaps
// it in without ever blocking a solver worker.
//
// There is no Rust counterpart for this component (the distilled spec
// invented it atop the original's ad-hoc seed-rotation code); it is
// built here the way the teacher structures a long-lived background
// manager guarding a mutex-protected slice plus a scanner goroutine
// (compare the reference pack's mutex-guarded chain state with an
// orphan-scanning goroutine).
package epoch

import (
	"strconv"
	"sync"

	"corepow/internal/compute/randomx"
	"corepow/internal/errs"
)

// State is one of the five states an Epoch can occupy (§3).
type State int

const (
	Waiting State = iota
	Loading
	Loaded
	Running
	Failed
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Running:
		return "running"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Seed is one entry in the epochs sequence: a height range sharing a
// single RandomX seed, plus its current lifecycle state.
type Seed struct {
	StartHeight uint64
	EndHeight   uint64
	Seed        [32]byte
	State       State
	FailReason  string
}

// contains reports whether height falls in (start, end], matching the
// half-open-on-the-low-side range semantics in §3.
func (e Seed) contains(height uint64) bool {
	return height > e.StartHeight && height <= e.EndHeight
}

// Manager owns the ordered epochs sequence and the current seed, and
// drives swap_dataset/load_next_dataset against an RxState handle.
// Exclusive-writer/shared-reader discipline, same as JobSharedData:
// workers only ever read the sequence to discover a newly Running
// epoch; the Controller (AddEpoch), the background loader, and
// SwapDataset are the only writers.
type Manager struct {
	rx *randomx.State

	mu          sync.RWMutex
	epochs      []Seed
	currentSeed [32]byte
	loaderBusy  bool
	lastHeight  uint64
}

// New constructs a Manager bound to the RxState it will drive
// InitCache/InitDataset/UpdateVMs against.
func New(rx *randomx.State) *Manager {
	return &Manager{rx: rx}
}

// AddEpoch registers an upcoming epoch; idempotent by seed (§4.1,
// §8: "add_epoch is idempotent by seed").
func (m *Manager) AddEpoch(start, end uint64, seed [32]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.epochs {
		if e.Seed == seed {
			return
		}
	}
	m.epochs = append(m.epochs, Seed{StartHeight: start, EndHeight: end, Seed: seed, State: Waiting})
}

// Epochs returns a clone of the current epochs sequence, for stats and
// tests. Workers never need this directly; they ask RunningCovers.
func (m *Manager) Epochs() []Seed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Seed, len(m.epochs))
	copy(out, m.epochs)
	return out
}

// RunningCovers reports whether some epoch in state Running covers
// height — the condition solver workers poll at §4.2 step 4.
func (m *Manager) RunningCovers(height uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.epochs {
		if e.State == Running && e.contains(height) {
			return true
		}
	}
	return false
}

// SwapDataset implements §4.3 swap_dataset(height): find the epoch
// whose range contains height, and if it is Loaded, make it the
// running epoch. A Failed epoch at this height is a fatal condition —
// the Controller must Shutdown rather than keep mining against a
// dataset that will never load (§9 design note: this was a raw panic
// in the source; here it is a returned error instead).
func (m *Manager) SwapDataset(height uint64) error {
	m.mu.Lock()
	m.lastHeight = height
	m.mu.Unlock()
	return m.trySwap(height)
}

// trySwap is SwapDataset's logic, factored out so the background
// loader can re-attempt the swap once an epoch finishes loading —
// notify() is the only caller described for swap_dataset in the
// original, but since its background load can easily still be running
// when swap_dataset first runs, nothing would ever promote a freshly
// Loaded epoch to Running without this retry (see DESIGN.md's Open
// Question decision on this point).
func (m *Manager) trySwap(height uint64) error {
	m.mu.Lock()
	idx := -1
	for i, e := range m.epochs {
		if e.contains(height) {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}
	switch m.epochs[idx].State {
	case Failed:
		reason := m.epochs[idx].FailReason
		m.mu.Unlock()
		return errs.NativeInit("epoch covering height "+strconv.FormatUint(height, 10)+" failed to load: "+reason, nil)
	case Loaded:
		// Any previously Running epoch is implicitly superseded: its
		// range is disjoint from this one, so RunningCovers will
		// simply never match it again once height has moved past it.
		m.epochs[idx].State = Running
		m.currentSeed = m.epochs[idx].Seed
		m.mu.Unlock()
		m.rx.UpdateVMs()
		return nil
	default:
		// Waiting or Loading: workers idle at step 4 until this
		// resolves (§4.3).
		m.mu.Unlock()
		return nil
	}
}

// CurrentSeed returns the seed last installed by SwapDataset. Per §9's
// Open Question decision, this is never cleared on Stop: it is
// lifetime-long state, overwritten only by a subsequent SwapDataset.
func (m *Manager) CurrentSeed() [32]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentSeed
}

// LoadNextDataset implements §4.3 load_next_dataset(): starts at most
// one background loader at a time, selecting the first Waiting epoch
// whose seed differs from the current one.
func (m *Manager) LoadNextDataset() {
	m.mu.Lock()
	if m.loaderBusy {
		m.mu.Unlock()
		return
	}
	for _, e := range m.epochs {
		if e.State == Loading || e.State == Loaded {
			m.mu.Unlock()
			return
		}
	}
	idx := -1
	for i, e := range m.epochs {
		if e.State == Waiting && e.Seed != m.currentSeed {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.epochs[idx].State = Loading
	m.loaderBusy = true
	seed := m.epochs[idx].Seed
	m.mu.Unlock()

	go m.runLoader(idx, seed)
}

func (m *Manager) runLoader(idx int, seed [32]byte) {
	defer func() {
		m.mu.Lock()
		m.loaderBusy = false
		m.mu.Unlock()
	}()

	result, err := m.rx.InitCache(seed)
	if err != nil {
		m.markFailed(idx, "init_cache: "+err.Error())
		return
	}
	if result == randomx.CacheUnchanged {
		m.markFailed(idx, "cannot initialize a new dataset: seed is stale")
		return
	}
	if err := m.rx.InitDataset(0); err != nil {
		m.markFailed(idx, "init_dataset: "+err.Error())
		return
	}
	m.mu.Lock()
	if idx < len(m.epochs) && m.epochs[idx].Seed == seed {
		m.epochs[idx].State = Loaded
	}
	height := m.lastHeight
	m.mu.Unlock()

	_ = m.trySwap(height)
}

func (m *Manager) markFailed(idx int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < len(m.epochs) {
		m.epochs[idx].State = Failed
		m.epochs[idx].FailReason = reason
	}
}
