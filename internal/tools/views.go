package tools

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"

	"nexus-defi/internal/wire"
)

// JSON numbers lose precision past 2^53, so every 64- and 128-bit value is
// rendered as a decimal string.

func u64(v uint64) string { return strconv.FormatUint(v, 10) }
func i64(v int64) string  { return strconv.FormatInt(v, 10) }

func u128(v uint128.Uint128) string { return v.String() }
func i128(v wire.Int128) string     { return v.String() }

func key(pk solana.PublicKey) string { return pk.String() }

// optKey renders the zero key as an empty string.
func optKey(pk solana.PublicKey) string {
	if pk.IsZero() {
		return ""
	}
	return pk.String()
}

// e6 renders a fixed-point value with six implied decimals.
func e6(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -6).String()
}

// bpsPercent renders basis points as a percentage.
func bpsPercent(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -2).String()
}

func signedBpsPercent(v int64) string {
	return decimal.New(v, -2).String()
}

func hex32(b [32]byte) string { return hex.EncodeToString(b[:]) }
