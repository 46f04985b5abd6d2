package solution

import (
	"testing"

	"corepow/internal/jobstate"
)

func TestSignAndVerifyRoundTrips(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	r := NewReport(id.Address[:], 1000, 7, "randomx", jobstate.Solution{ID: 7, Nonce: 42})
	if err := r.Sign(id.PrivateKey); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := r.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsTamperedNonce(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	r := NewReport(id.Address[:], 1000, 7, "randomx", jobstate.Solution{ID: 7, Nonce: 42})
	if err := r.Sign(id.PrivateKey); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	r.Nonce = 43
	if err := r.Verify(); err == nil {
		t.Fatalf("expected Verify to reject a report whose nonce changed after signing")
	}
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	r := NewReport([]byte{1, 2, 3}, 1, 1, "progpow", jobstate.Solution{})
	if err := r.Verify(); err == nil {
		t.Fatalf("expected Verify to reject an unsigned report")
	}
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	r := NewReport(id.Address[:], 10, 2, "cuckoo", jobstate.Solution{ID: 2, Nonce: 99})
	if err := r.Sign(id.PrivateKey); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	data, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := decoded.Verify(); err != nil {
		t.Fatalf("decoded report should still verify: %v", err)
	}
	if decoded.Nonce != 99 {
		t.Fatalf("expected nonce 99, got %d", decoded.Nonce)
	}
}

func TestLoadIdentityRoundTrips(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	loaded, err := LoadIdentity(id.PrivateKeyHex())
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if loaded.Address != id.Address {
		t.Fatalf("expected address %x, got %x", id.Address, loaded.Address)
	}
}
