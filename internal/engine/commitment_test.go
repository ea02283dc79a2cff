package engine

import (
	"crypto/sha256"
	"testing"

	"github.com/privymarket/settlement/pkg/types"
)

func TestComputeCommitment_Construction(t *testing.T) {
	var secret types.Secret
	for i := range secret {
		secret[i] = byte(i)
	}

	// The digest must be exactly sha256(secret || side_byte).
	want := sha256.Sum256(append(secret[:], 1))
	got := ComputeCommitment(secret, types.Yes)
	if got != types.Commitment(want) {
		t.Fatalf("yes commitment mismatch: got %s", got)
	}

	want = sha256.Sum256(append(secret[:], 0))
	got = ComputeCommitment(secret, types.No)
	if got != types.Commitment(want) {
		t.Fatalf("no commitment mismatch: got %s", got)
	}
}

func TestComputeCommitment_SecretBitFlip(t *testing.T) {
	var secret types.Secret
	secret[0] = 0xAA

	base := ComputeCommitment(secret, types.Yes)

	// Flipping any single bit of the secret must change the digest.
	for i := 0; i < len(secret); i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := secret
			flipped[i] ^= 1 << bit

			if ComputeCommitment(flipped, types.Yes).Equal(base) {
				t.Fatalf("digest unchanged after flipping byte %d bit %d", i, bit)
			}
		}
	}
}

func TestComputeCommitment_SideFlip(t *testing.T) {
	var secret types.Secret
	secret[31] = 0x7F

	if ComputeCommitment(secret, types.Yes).Equal(ComputeCommitment(secret, types.No)) {
		t.Fatal("yes and no commitments must differ for the same secret")
	}
}

func TestNewSecret_Distinct(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	b, err := NewSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	if a == b {
		t.Fatal("two generated secrets collided")
	}
}
