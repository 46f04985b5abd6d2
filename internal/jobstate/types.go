// Package jobstate holds the data shared between the Controller and the
// Solver Pool: the current job, accumulated solutions, and per-worker
// statistics. A single JobSharedData record backs one back-end Miner for
// its whole lifetime.
package jobstate

import (
	"bytes"
	"sync"
	"time"
)

// maxNameLen is the fixed width of the zero-terminated name fields in
// SolverStats, kept for wire compatibility with the native engines
// (§3 of the spec: "fixed-width 256-byte fields").
const maxNameLen = 256

// Job describes the current mining target as handed down by notify.
// job_id is opaque and may repeat; height changing is what defines a
// job change.
type Job struct {
	JobID      uint32
	Height     uint64
	PreNonce   []byte
	PostNonce  []byte
	Difficulty uint64
}

// AlgorithmKind tags which back-end produced an AlgorithmParams value.
type AlgorithmKind int

const (
	AlgorithmCuckoo AlgorithmKind = iota
	AlgorithmRandomX
	AlgorithmProgPow
)

// AlgorithmParams is the tagged variant of per-algorithm proof data.
// Exactly one of the fields is meaningful, selected by Kind.
type AlgorithmParams struct {
	Kind AlgorithmKind

	// Cuckoo
	EdgeBits uint32
	Nonces   []uint64

	// RandomX
	Hash [32]byte

	// ProgPow
	Mix [32]byte
}

// Equal reports whether two AlgorithmParams encode the same proof. Used
// by the round-trip tests required in §8.
func (a AlgorithmParams) Equal(b AlgorithmParams) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AlgorithmCuckoo:
		if a.EdgeBits != b.EdgeBits || len(a.Nonces) != len(b.Nonces) {
			return false
		}
		for i := range a.Nonces {
			if a.Nonces[i] != b.Nonces[i] {
				return false
			}
		}
		return true
	case AlgorithmRandomX:
		return a.Hash == b.Hash
	case AlgorithmProgPow:
		return a.Mix == b.Mix
	default:
		return false
	}
}

// Solution is a (job id, nonce, algorithm-specific proof) triple whose
// hash fell at or below the boundary in effect when it was discovered.
type Solution struct {
	ID     uint64
	Nonce  uint64
	Params AlgorithmParams
}

// SolverStats is the per-worker record published every iteration. Name
// fields are fixed-width byte arrays so the layout matches what a native
// plugin ABI would expect; the PluginName/SetPluginName,
// DeviceName/SetDeviceName and ErrorReason/SetErrorReason accessors hide
// the zero-termination.
type SolverStats struct {
	DeviceID        uint32
	EdgeBits        uint32
	pluginName      [maxNameLen]byte
	deviceName      [maxNameLen]byte
	HasErrored      bool
	errorReason     [maxNameLen]byte
	Iterations      uint32
	LastStartTime   int64 // unix millis
	LastEndTime     int64 // unix millis
	LastSolutionTime int64 // unix millis, 0 until this worker emits its first solution
	HashesPerSec    uint64
}

func setName(dst *[maxNameLen]byte, s string) {
	*dst = [maxNameLen]byte{}
	copy(dst[:maxNameLen-1], s)
}

func getName(src *[maxNameLen]byte) string {
	i := bytes.IndexByte(src[:], 0)
	if i < 0 {
		i = len(src)
	}
	return string(src[:i])
}

func (s *SolverStats) SetPluginName(name string) { setName(&s.pluginName, name) }
func (s *SolverStats) PluginName() string         { return getName(&s.pluginName) }
func (s *SolverStats) SetDeviceName(name string)  { setName(&s.deviceName, name) }
func (s *SolverStats) DeviceName() string          { return getName(&s.deviceName) }
func (s *SolverStats) SetErrorReason(reason string) {
	setName(&s.errorReason, reason)
	s.HasErrored = reason != ""
}
func (s *SolverStats) ErrorReason() string { return getName(&s.errorReason) }

// ControlMessage is sent over a worker's control or solver-loop channel.
type ControlMessageKind int

const (
	Stop ControlMessageKind = iota
	Pause
	Resume
	SolverStopped
)

type ControlMessage struct {
	Kind     ControlMessageKind
	Instance int // only meaningful for SolverStopped
}

// JobSharedData is the single mutable record a Miner façade hands to
// every solver worker. Exclusive-writer/shared-reader discipline: take
// mu for writes (job install, stats write, solution append/drain);
// readers RLock and clone fields out before releasing the lock.
type JobSharedData struct {
	mu sync.RWMutex

	job       Job
	solutions []Solution
	stats     []SolverStats
}

// NewJobSharedData allocates a record sized for numSolvers workers.
// Difficulty starts at 1 so that an unconfigured boundary never divides
// by zero (§8 boundary property).
func NewJobSharedData(numSolvers int) *JobSharedData {
	return &JobSharedData{
		job:   Job{Difficulty: 1},
		stats: make([]SolverStats, numSolvers),
	}
}

// Job returns a copy of the current job fields.
func (d *JobSharedData) Job() Job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	j := d.job
	j.PreNonce = append([]byte(nil), d.job.PreNonce...)
	j.PostNonce = append([]byte(nil), d.job.PostNonce...)
	return j
}

// Height returns just the current height, the field workers poll most.
func (d *JobSharedData) Height() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.job.Height
}

// SetJob installs new job fields. Returns true if the height changed,
// which is the signal the Miner façade uses to decide whether to
// pause/resume around the update.
func (d *JobSharedData) SetJob(j Job) (heightChanged bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	heightChanged = j.Height != d.job.Height
	d.job = j
	return heightChanged
}

// AppendSolution appends a solution to the output buffer. O(1).
func (d *JobSharedData) AppendSolution(s Solution) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.solutions = append(d.solutions, s)
}

// DrainSolutions returns and clears the accumulated solutions.
func (d *JobSharedData) DrainSolutions() []Solution {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.solutions) == 0 {
		return nil
	}
	out := d.solutions
	d.solutions = nil
	return out
}

// Stats returns a clone of the full stats vector.
func (d *JobSharedData) Stats() []SolverStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]SolverStats, len(d.stats))
	copy(out, d.stats)
	return out
}

// WriteStats replaces one worker's stats slot. Only that worker ever
// calls this for its own instance, so no cross-worker contention.
func (d *JobSharedData) WriteStats(instance int, s SolverStats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats[instance] = s
}

// MutateStats applies fn to one worker's slot under the write lock, for
// callers that want read-modify-write without a full replacement.
func (d *JobSharedData) MutateStats(instance int, fn func(*SolverStats)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.stats[instance])
}

func nowMillis() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// NowMillis exposes the worker's timestamp source so both
// internal/solver and its tests agree on units.
func NowMillis() int64 { return nowMillis() }
