// Package wallet loads a signing keypair from a base58 secret or a JSON byte
// array as written by solana-keygen.
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58/base58"
)

var (
	ErrNoWallet      = errors.New("wallet private key is not configured (set SOLANA_PRIVATE_KEY)")
	ErrInvalidSecret = errors.New("invalid wallet secret")
)

// Load parses secret. Base58 is tried first, then a JSON array of bytes.
func Load(secret string) (solana.PrivateKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNoWallet
	}
	if strings.HasPrefix(secret, "[") {
		return fromJSON(secret)
	}
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return fromBytes(raw)
}

func fromJSON(secret string) (solana.PrivateKey, error) {
	var values []int
	if err := json.Unmarshal([]byte(secret), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	raw := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrInvalidSecret, i, v)
		}
		raw[i] = byte(v)
	}
	return fromBytes(raw)
}

func fromBytes(raw []byte) (solana.PrivateKey, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecret, ed25519.PrivateKeySize, len(raw))
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidSecret)
	}
	return solana.PrivateKey(raw), nil
}
