// Package solution signs and verifies found-solution submissions with
// an ECDSA (secp256k1) identity key, the same signature scheme the
// teacher uses for transactions (core/tx.go's Sign/Verify), adapted
// from a value-transfer payload to a mining solution report.
package solution

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"corepow/internal/jobstate"
)

// Report is a solved-nonce submission, signed by the miner's identity
// key before being handed to the stratum client for publishing.
type Report struct {
	MinerAddr []byte          `json:"miner_addr"`
	Height    uint64          `json:"height"`
	JobID     uint64          `json:"job_id"`
	Nonce     uint64          `json:"nonce"`
	Algorithm string          `json:"algorithm"`
	Signature []byte          `json:"signature"`
	Hash      []byte          `json:"hash"`
}

// NewReport builds an unsigned Report from a found Solution.
func NewReport(minerAddr []byte, height, jobID uint64, algorithm string, sol jobstate.Solution) *Report {
	return &Report{MinerAddr: minerAddr, Height: height, JobID: jobID, Nonce: sol.Nonce, Algorithm: algorithm}
}

// calculateHash hashes the report's content fields (everything but the
// signature itself), matching tx.go's CalculateHash pattern of hashing
// a deterministic JSON encoding of the signable fields.
func (r *Report) calculateHash() []byte {
	data := struct {
		MinerAddr []byte `json:"miner_addr"`
		Height    uint64 `json:"height"`
		JobID     uint64 `json:"job_id"`
		Nonce     uint64 `json:"nonce"`
		Algorithm string `json:"algorithm"`
	}{r.MinerAddr, r.Height, r.JobID, r.Nonce, r.Algorithm}

	jsonData, err := json.Marshal(data)
	if err != nil {
		panic(fmt.Sprintf("solution: failed to marshal report: %v", err))
	}
	return crypto.Keccak256(jsonData)
}

// Sign signs the report with privKey, filling in Hash and Signature.
func (r *Report) Sign(privKey *ecdsa.PrivateKey) error {
	hash := r.calculateHash()
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return fmt.Errorf("solution: failed to sign report: %w", err)
	}
	r.Signature = sig
	r.Hash = hash
	return nil
}

// Verify checks the report's signature against its claimed MinerAddr.
func (r *Report) Verify() error {
	if len(r.Signature) == 0 {
		return errors.New("solution: report has no signature")
	}
	hash := r.calculateHash()
	pubKey, err := crypto.SigToPub(hash, r.Signature)
	if err != nil {
		return fmt.Errorf("solution: invalid signature: %w", err)
	}
	signer := crypto.PubkeyToAddress(*pubKey).Bytes()
	if !bytes.Equal(signer, r.MinerAddr) {
		return errors.New("solution: signature does not match claimed miner address")
	}
	return nil
}

// Encode serializes the report to JSON for wire transport.
func (r *Report) Encode() ([]byte, error) { return json.Marshal(r) }

// Decode deserializes a report from JSON.
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("solution: failed to decode report: %w", err)
	}
	return &r, nil
}

// String returns a short human-readable summary, matching tx.go's
// truncated-address String() convention.
func (r *Report) String() string {
	addr := hex.EncodeToString(r.MinerAddr)
	if len(addr) > 16 {
		addr = addr[:16] + "..."
	}
	return fmt.Sprintf("Report{Miner: %s, Height: %d, JobID: %d, Nonce: %d, Algo: %s}",
		addr, r.Height, r.JobID, r.Nonce, r.Algorithm)
}

// Identity is a miner's signing keypair, generated the same way the
// original CLI's generate-key subcommand does via crypto.GenerateKey.
type Identity struct {
	PrivateKey *ecdsa.PrivateKey
	Address    [20]byte
}

// GenerateIdentity creates a fresh secp256k1 identity.
func GenerateIdentity() (*Identity, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("solution: failed to generate key: %w", err)
	}
	pub := priv.Public().(*ecdsa.PublicKey)
	return &Identity{PrivateKey: priv, Address: crypto.PubkeyToAddress(*pub)}, nil
}

// LoadIdentity reconstructs an Identity from a hex-encoded private key,
// matching the CLI's saved-key-file format (hex.EncodeToString(crypto.FromECDSA(priv))).
func LoadIdentity(privKeyHex string) (*Identity, error) {
	b, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("solution: invalid private key hex: %w", err)
	}
	priv, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("solution: invalid private key: %w", err)
	}
	pub := priv.Public().(*ecdsa.PublicKey)
	return &Identity{PrivateKey: priv, Address: crypto.PubkeyToAddress(*pub)}, nil
}

// PrivateKeyHex returns the identity's private key as the same hex
// encoding LoadIdentity accepts.
func (id *Identity) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(id.PrivateKey))
}
