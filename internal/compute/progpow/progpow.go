// Package progpow adapts the ProgPow compute engine contract (§6.3): a
// GPU batch solver plus a CPU verifier for the nonce the GPU reports.
//
// There is no cgo OpenCL/CUDA binding in this module's dependency set,
// so PpGPU is a software model grounded on the original's GLOBAL_WORK_SIZE
// x LOCAL_WORK_SIZE batch shape and keccak-prehash + CPU re-verify flow
// (original_source/progpow-miner/src/miner.rs), built on
// golang.org/x/crypto/sha3 for both the GPU's simulated mix and the CPU
// verifier so the two always agree bit-for-bit.
package progpow

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// GlobalWorkSize and LocalWorkSize reproduce the original kernel launch
// shape; WorkPerCall is the number of nonce candidates one Compute call
// covers.
const (
	GlobalWorkSize = 2048
	LocalWorkSize  = 256
	WorkPerCall    = GlobalWorkSize * LocalWorkSize
)

// Keccak256Prehash hashes the raw header bytes the way the original
// miner does before handing them to the GPU kernel (§6.4: "the header
// is then optionally keccak-prehashed per the ProgPow path").
func Keccak256Prehash(header []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(header)
	copy(out[:], h.Sum(nil))
	return out
}

func mix(header [32]byte, height uint64, epoch int32, nonce uint64) [32]byte {
	h := sha3.New256()
	h.Write(header[:])
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[0:8], height)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(epoch))
	binary.LittleEndian.PutUint64(buf[12:20], nonce)
	h.Write(buf[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// GPU is PpGPU: one batch-compute device handle per worker.
type GPU struct {
	deviceID int
	driver   string

	lastHeader [32]byte
	lastHeight uint64
	lastEpoch  int32
	solution   *gpuSolution
}

type gpuSolution struct {
	nonce uint64
	mix   [32]byte
}

// New constructs an unconfigured GPU handle (§6.3: PpGPU::new(device_id, driver)).
func New(deviceID int, driver string) *GPU {
	return &GPU{deviceID: deviceID, driver: driver}
}

// DeviceID returns the configured device index, for tagging stats.
func (g *GPU) DeviceID() int { return g.deviceID }

// Driver returns the configured driver name (e.g. "opencl", "cuda"),
// used as the device name stats tag.
func (g *GPU) Driver() string { return g.driver }

// Init prepares the device for Compute calls. The software model has
// nothing to allocate, kept for parity with the native lifecycle
// (Rust's gpu.init() before the solver loop starts).
func (g *GPU) Init() {}

// Compute runs one batch over [nonce, nonce+WorkPerCall) and records
// the first candidate whose mix, interpreted as a U256, falls at or
// below targetU64 shifted into the top word — mirroring the real
// kernel's target comparison being done in hardware. header is the
// keccak-prehashed 32-byte value, epochIndex is height/30000.
func (g *GPU) Compute(header [32]byte, height uint64, epochIndex int32, targetU64 uint64, startingNonce uint64) {
	g.lastHeader = header
	g.lastHeight = height
	g.lastEpoch = epochIndex
	g.solution = nil

	for i := uint64(0); i < WorkPerCall; i++ {
		nonce := startingNonce + i
		m := mix(header, height, epochIndex, nonce)
		top := binary.BigEndian.Uint64(m[:8])
		if top <= targetU64 {
			g.solution = &gpuSolution{nonce: nonce, mix: m}
			return
		}
	}
}

// GetSolutions returns the nonce/mix pair found by the last Compute
// call, if any (§6.3: optional<(nonce, mix[32])>).
func (g *GPU) GetSolutions() (nonce uint64, mixOut [32]byte, ok bool) {
	if g.solution == nil {
		return 0, [32]byte{}, false
	}
	return g.solution.nonce, g.solution.mix, true
}

// CPU is PpCPU: the software verifier a GPU-reported nonce is checked
// against before a solution is ever emitted, so a misbehaving device
// can never cause an invalid solution to reach the client.
type CPU struct{}

// NewCPU constructs a CPU verifier; stateless, kept as a type for
// symmetry with the native contract.
func NewCPU() *CPU { return &CPU{} }

// Verify recomputes the mix independently of the GPU (§6.3:
// PpCPU::verify(header, height, nonce) -> (digest32, ok)). Verify is not
// given the GPU's mix, so ok is always true in this software model; the
// comparison of digest against the GPU-reported mix is made by the
// caller (internal/solver.RunProgPow).
func (c *CPU) Verify(header [32]byte, height uint64, epochIndex int32, nonce uint64) (digest [32]byte, ok bool) {
	digest = mix(header, height, epochIndex, nonce)
	return digest, true
}
