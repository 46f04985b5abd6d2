// Package randomx adapts the RandomX compute engine contract (§6.3) to
// the shared-memory-hard-dataset model: a cache derived from the epoch
// seed, a larger dataset derived from the cache, and a pool of VMs bound
// to the current dataset.
//
// There is no cgo RandomX binding in this module's dependency set, so
// the cache/dataset/hash pipeline below is a software model built on
// golang.org/x/crypto/sha3, grounded on the teacher's initRandomX
// cache→dataset→VM lifecycle (see the reference pack's RandomX miner
// Init/Close chain) and on the original core's RxState capability set
// (init_cache/init_dataset/create_vm/update_vms/is_initialized).
package randomx

import (
	"sync"

	"golang.org/x/crypto/sha3"

	"corepow/internal/errs"
)

// datasetItemSize mirrors the real RandomX dataset's 64-byte item width;
// kept small here since this is a software model, not the actual
// memory-hard construction.
const datasetItemSize = 64

// datasetItems controls how large the modeled dataset is. The real
// RandomX dataset is ~2 GB; this is a stand-in sized to make dataset
// construction measurably slower than cache construction without
// actually consuming gigabytes of RAM in tests.
const datasetItems = 1 << 14

// CacheChangeResult is the tri-state result of InitCache (§6.3:
// Changed|Unchanged|Err).
type CacheChangeResult int

const (
	CacheChanged CacheChangeResult = iota
	CacheUnchanged
)

// Cache is the small seed-derived table (4 KB in this model) dataset
// items are expanded from.
type Cache struct {
	seed  [32]byte
	table []byte
}

func newCache(seed [32]byte) *Cache {
	c := &Cache{seed: seed, table: make([]byte, 4096)}
	h := sha3.NewShake256()
	h.Write(seed[:])
	h.Read(c.table)
	return c
}

// Dataset is the large table VMs hash against, expanded from a Cache.
type Dataset struct {
	items []byte
}

func newDataset(c *Cache) *Dataset {
	d := &Dataset{items: make([]byte, datasetItems*datasetItemSize)}
	for i := 0; i < datasetItems; i++ {
		h := sha3.Sum512(append(c.table[:], byte(i), byte(i>>8), byte(i>>16)))
		copy(d.items[i*datasetItemSize:], h[:datasetItemSize])
	}
	return d
}

// VM is a worker's handle into a bound Dataset. Rebinding the dataset
// pointer (UpdateVMs) never moves or replaces the VM, matching the
// native contract's safety guarantee that this is safe to do while
// workers hold references (§9 design note).
type VM struct {
	mu      sync.RWMutex
	dataset *Dataset
}

func (vm *VM) rebind(d *Dataset) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.dataset = d
}

// Calculate computes the RandomX hash of a header with its nonce field
// already mutated to the trial value (§6.3: calculate(vm, header, nonce)).
// The hash folds in the bound dataset so a result is only reproducible
// against the matching epoch's dataset, as the real VM requires.
func Calculate(vm *VM, header []byte, nonce uint64) [32]byte {
	vm.mu.RLock()
	d := vm.dataset
	vm.mu.RUnlock()

	h := sha3.New256()
	h.Write(header)
	if d != nil {
		idx := (nonce % datasetItems) * datasetItemSize
		h.Write(d.items[idx : idx+datasetItemSize])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// State is the RxState handle described in §3/§6.3: a cache+dataset+VM
// pool keyed on the current epoch seed, with capability flags carried
// for parity with the native contract even though this software model
// does not vary behavior on them.
type State struct {
	FullMem      bool
	HardAES      bool
	LargePages   bool
	JITCompiler  bool

	mu          sync.RWMutex
	cache       *Cache
	dataset     *Dataset
	vms         []*VM
	initialized bool
}

// NewState constructs an uninitialized handle; workers spin on
// IsInitialized() until the first epoch load completes (§4.4).
func NewState() *State {
	return &State{FullMem: true, HardAES: true}
}

// InitCache (re)derives the cache from seed. Reports Unchanged if the
// seed matches the handle's current cache, matching §4.3's
// load_next_dataset contract (an unchanged cache means the candidate
// epoch's seed is stale and the caller should mark it Failed).
func (s *State) InitCache(seed [32]byte) (CacheChangeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil && s.cache.seed == seed {
		return CacheUnchanged, nil
	}
	s.cache = newCache(seed)
	s.initialized = false
	return CacheChanged, nil
}

// InitDataset expands the current cache into a new dataset. threads is
// accepted for parity with the native contract (a real build would
// parallelize dataset construction across it); the software model
// builds the dataset on the calling goroutine.
func (s *State) InitDataset(threads int) error {
	s.mu.Lock()
	cache := s.cache
	s.mu.Unlock()
	if cache == nil {
		return errs.NativeInit("init_dataset called before init_cache", nil)
	}
	if threads <= 0 {
		threads = 1
	}
	ds := newDataset(cache)

	s.mu.Lock()
	s.dataset = ds
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// CreateVM allocates a worker VM bound to the current dataset.
func (s *State) CreateVM() (*VM, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return nil, errs.NativeInit("create_vm called before a dataset was ready", nil)
	}
	vm := &VM{dataset: s.dataset}
	s.vms = append(s.vms, vm)
	return vm, nil
}

// UpdateVMs rebinds every outstanding VM to the current dataset. Safe
// to call while workers hold VM references (§9): the VM struct itself
// never moves, only its dataset pointer changes under its own lock.
func (s *State) UpdateVMs() {
	s.mu.RLock()
	d := s.dataset
	vms := append([]*VM(nil), s.vms...)
	s.mu.RUnlock()
	for _, vm := range vms {
		vm.rebind(d)
	}
}

// IsInitialized reports whether a dataset is ready for VMs to hash
// against.
func (s *State) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}
