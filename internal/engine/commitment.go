package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/privymarket/settlement/pkg/types"
)

// ComputeCommitment derives the digest stored at bet time:
// sha256(secret ‖ side_byte), side_byte 1 for yes and 0 for no. The
// construction has to stay byte-for-byte stable or no stored
// commitment would ever verify again.
func ComputeCommitment(secret types.Secret, side types.Side) types.Commitment {
	h := sha256.New()
	h.Write(secret[:])
	h.Write([]byte{side.Byte()})

	var c types.Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// NewSecret draws a fresh 32-byte secret. The bettor keeps it
// off-ledger until claim time.
func NewSecret() (types.Secret, error) {
	var s types.Secret
	_, err := rand.Read(s[:])
	if err != nil {
		return types.Secret{}, fmt.Errorf("generate secret: %w", err)
	}
	return s, nil
}
