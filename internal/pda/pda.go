// Package pda derives program addresses from seed lists.
package pda

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Address is a derived program address with the bump that moved it off the curve.
type Address struct {
	Key  solana.PublicKey
	Bump uint8
}

// Find derives the address for seeds under programID. It is deterministic:
// the same seeds and program always give the same address and bump.
func Find(programID solana.PublicKey, seeds ...[]byte) (Address, error) {
	key, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Address{}, fmt.Errorf("find program address: %w", err)
	}
	return Address{Key: key, Bump: bump}, nil
}

func SeedString(s string) []byte {
	return []byte(s)
}

func SeedKey(pk solana.PublicKey) []byte {
	return pk.Bytes()
}

func SeedU16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func SeedU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func SeedU64(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}
