// Package wire holds the little-endian fixed-width codec shared by every
// on-chain account layout and instruction payload.
//
// The offset readers do not check bounds. Decoders verify that a buffer
// covers a whole section before reading any field of it.
package wire

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

const PublicKeyLen = 32

func U8(buf []byte, off int) uint8 {
	return buf[off]
}

func U16(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off:])
}

func U32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func U64(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off:])
}

func I64(buf []byte, off int) int64 {
	return int64(binary.LittleEndian.Uint64(buf[off:]))
}

// U128 reads the low word first, then the high word.
func U128(buf []byte, off int) uint128.Uint128 {
	return uint128.FromBytes(buf[off : off+16])
}

// I128 reads a two's complement 128-bit value, low word first.
func I128(buf []byte, off int) Int128 {
	return Int128{
		Lo: binary.LittleEndian.Uint64(buf[off:]),
		Hi: binary.LittleEndian.Uint64(buf[off+8:]),
	}
}

func PublicKey(buf []byte, off int) solana.PublicKey {
	return solana.PublicKeyFromBytes(buf[off : off+PublicKeyLen])
}
