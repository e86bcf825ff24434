package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var (
	maxU64  = new(big.Int).SetUint64(math.MaxUint64)
	minI64  = big.NewInt(math.MinInt64)
	maxI64  = big.NewInt(math.MaxInt64)
	maxU128 = new(big.Int).Sub(two128, big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

func EncodeU8(v uint8) []byte {
	return []byte{v}
}

func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func EncodeU16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func EncodeU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func EncodeU64(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU64) > 0 {
		return nil, &RangeError{Type: "u64", Value: bigString(v)}
	}
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v.Uint64())
	return out, nil
}

func EncodeI64(v *big.Int) ([]byte, error) {
	if v == nil || v.Cmp(minI64) < 0 || v.Cmp(maxI64) > 0 {
		return nil, &RangeError{Type: "i64", Value: bigString(v)}
	}
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(v.Int64()))
	return out, nil
}

func EncodeU128(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		return nil, &RangeError{Type: "u128", Value: bigString(v)}
	}
	lo := new(big.Int).And(v, maxU64).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	return putWords(lo, hi), nil
}

func EncodeI128(v *big.Int) ([]byte, error) {
	x, err := Int128FromBig(v)
	if err != nil {
		return nil, err
	}
	return putWords(x.Lo, x.Hi), nil
}

// EncodePublicKey copies the 32 key bytes. No curve check is made.
func EncodePublicKey(pk solana.PublicKey) []byte {
	out := make([]byte, PublicKeyLen)
	copy(out, pk[:])
	return out
}

// ParseInteger parses a base-10 integer argument such as an amount or a
// signed trade size.
func ParseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

func putWords(lo, hi uint64) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out, lo)
	binary.LittleEndian.PutUint64(out[8:], hi)
	return out
}
