package jobstate

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"corepow/internal/errs"
)

// GetNextHeaderData assembles the mutable mining header from a job's
// pre/post-nonce halves (§4.2 step 5, §6.4): pre_nonce || nonce(LE u64)
// || post_nonce. It returns a starting nonce and the buffer the worker
// will mutate the nonce field of in place on every trial.
//
// pre and post arrive as raw bytes (already hex-decoded by the caller);
// DecodeHeaderHex below does that decoding and reports KindJob errors
// for malformed hex, matching §7's policy that a bad header just skips
// the current iteration.
func GetNextHeaderData(pre, post []byte, startingNonce uint64) (nonce uint64, header []byte) {
	buf := make([]byte, len(pre)+8+len(post))
	copy(buf, pre)
	binary.LittleEndian.PutUint64(buf[len(pre):], startingNonce)
	copy(buf[len(pre)+8:], post)
	return startingNonce, buf
}

// SetNonce mutates the nonce field of a header buffer previously built
// by GetNextHeaderData, without touching the pre/post halves.
func SetNonce(header []byte, preLen int, nonce uint64) {
	binary.LittleEndian.PutUint64(header[preLen:preLen+8], nonce)
}

// DecodeHeaderHex decodes the lowercase-hex pre/post nonce strings
// delivered by the stratum client (§6.4). A malformed string is a
// KindJob error: the caller should skip this iteration, not crash.
func DecodeHeaderHex(preHex, postHex string) (pre, post []byte, err error) {
	pre, err = hex.DecodeString(preHex)
	if err != nil {
		return nil, nil, errs.Job("invalid pre_nonce hex", err)
	}
	post, err = hex.DecodeString(postHex)
	if err != nil {
		return nil, nil, errs.Job("invalid post_nonce hex", err)
	}
	return pre, post, nil
}

// maxU256 is 2^256 - 1, used as the numerator of the boundary
// computation (§6.5).
var maxU256 = func() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 256)
	return v.Sub(v, big.NewInt(1))
}()

// Boundary returns floor((2^256-1) / max(difficulty, 1)). Zero
// difficulty is always treated as 1, per §6.5 and §8's boundary
// property, so callers never divide by zero or compute a degenerate
// 2^256 boundary.
//
// Following the teacher's defensive math.big discipline (see
// core/difficulty.go in the reference pack): always build a fresh
// *big.Int with big.NewInt/new(big.Int).Set rather than mutate a
// zero-value *big.Int, since a nil *big.Int panics on any arithmetic.
func Boundary(difficulty uint64) *big.Int {
	if difficulty == 0 {
		difficulty = 1
	}
	d := new(big.Int).SetUint64(difficulty)
	b := new(big.Int).Set(maxU256)
	return b.Div(b, d)
}

// MeetsBoundary reports whether a big-endian hash is at or below the
// boundary for the given difficulty. A hash exactly equal to the
// boundary is accepted (§8).
func MeetsBoundary(hash []byte, difficulty uint64) bool {
	h := new(big.Int).SetBytes(hash)
	return h.Cmp(Boundary(difficulty)) <= 0
}

// TargetU64 extracts the top 64 bits of the boundary the way the
// ProgPow GPU kernel contract wants it (§6.5: target_u64 = boundary >> 192).
func TargetU64(difficulty uint64) uint64 {
	b := Boundary(difficulty)
	shifted := new(big.Int).Rsh(b, 192)
	return shifted.Uint64()
}
