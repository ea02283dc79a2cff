// Package identity authenticates callers. Identities are secp256k1
// addresses; a request is authorized by a signature over its payload,
// and the engine treats the recovered signer as the caller.
package identity

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyEnv is the environment variable the CLI reads its signing
// key from.
const PrivateKeyEnv = "PRIVYMARKET_PRIVATE_KEY"

// signPrefix domain-separates settlement signatures from any other use
// of the same key.
const signPrefix = "privymarket/v1:"

// GenerateKey creates a fresh keypair.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// Address derives the caller address for a private key.
func Address(priv *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(priv.PublicKey)
}

// LoadKeyFromEnv parses the hex private key from PrivateKeyEnv.
func LoadKeyFromEnv() (*ecdsa.PrivateKey, error) {
	keyHex := os.Getenv(PrivateKeyEnv)
	if keyHex == "" {
		return nil, fmt.Errorf("%s not set", PrivateKeyEnv)
	}
	keyHex = strings.TrimPrefix(keyHex, "0x")

	priv, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return priv, nil
}

// SignPayload signs keccak256(signPrefix ‖ payload) and returns the
// 65-byte signature hex-encoded.
func SignPayload(priv *ecdsa.PrivateKey, payload []byte) (string, error) {
	sig, err := crypto.Sign(digest(payload), priv)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return hexutil.Encode(sig), nil
}

// RecoverSigner returns the address that produced sigHex over payload.
// Any tampering with either makes recovery fail or yield a different
// address.
func RecoverSigner(payload []byte, sigHex string) (common.Address, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	pub, err := crypto.SigToPub(digest(payload), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func digest(payload []byte) []byte {
	return crypto.Keccak256(append([]byte(signPrefix), payload...))
}
