package types

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Commitment is the 32-byte digest a bettor stores at bet time. The
// chosen side never touches the ledger; this digest is its only trace
// until the bettor reveals the preimage at claim time.
type Commitment [32]byte

// Secret is the 32-byte preimage a bettor generates off-ledger. It is
// disclosed only when claiming.
type Secret [32]byte

// Equal compares two commitments in constant time.
func (c Commitment) Equal(other Commitment) bool {
	return subtle.ConstantTimeCompare(c[:], other[:]) == 1
}

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalText encodes the commitment as lowercase hex.
func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(c[:])), nil
}

// UnmarshalText decodes a 64-character hex string.
func (c *Commitment) UnmarshalText(text []byte) error {
	return decode32("commitment", (*[32]byte)(c), text)
}

func (s Secret) String() string {
	return hex.EncodeToString(s[:])
}

// MarshalText encodes the secret as lowercase hex.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(s[:])), nil
}

// UnmarshalText decodes a 64-character hex string.
func (s *Secret) UnmarshalText(text []byte) error {
	return decode32("secret", (*[32]byte)(s), text)
}

func decode32(what string, dst *[32]byte, text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decode %s: want 32 bytes, got %d", what, len(raw))
	}
	copy(dst[:], raw)
	return nil
}
