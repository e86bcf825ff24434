package wire

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AnchorDiscriminatorLen is the account-type tag that prefixes every Anchor account.
const AnchorDiscriminatorLen = 8

// Reader walks a sequential layout. The first short read sticks: later
// reads return zero values and Err reports the *LayoutError.
type Reader struct {
	section string
	size    int
	dec     *bin.Decoder
	err     error
}

func NewReader(section string, data []byte) *Reader {
	return &Reader{section: section, size: len(data), dec: bin.NewBorshDecoder(data)}
}

// NewAnchorReader positions a Reader after the 8-byte discriminator.
func NewAnchorReader(section string, data []byte) *Reader {
	r := NewReader(section, data)
	r.Skip(AnchorDiscriminatorLen)
	return r
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Offset() int {
	return r.size - r.dec.Remaining()
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.dec.Remaining() < n {
		r.err = &LayoutError{Section: r.section, Need: r.Offset() + n, Have: r.size}
		return false
	}
	return true
}

func (r *Reader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *Reader) Skip(n int) {
	if !r.need(n) {
		return
	}
	r.fail(r.dec.SkipBytes(uint(n)))
}

// Bytes returns nil once the reader has failed.
func (r *Reader) Bytes(n int) []byte {
	if n < 0 || !r.need(n) {
		return nil
	}
	out, err := r.dec.ReadNBytes(n)
	r.fail(err)
	return out
}

func (r *Reader) U8() uint8 {
	if !r.need(1) {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.fail(err)
	return v
}

// Bool treats any non-zero byte as true.
func (r *Reader) Bool() bool {
	return r.U8() != 0
}

func (r *Reader) U16() uint16 {
	if !r.need(2) {
		return 0
	}
	v, err := r.dec.ReadUint16(binary.LittleEndian)
	r.fail(err)
	return v
}

func (r *Reader) U32() uint32 {
	if !r.need(4) {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.fail(err)
	return v
}

func (r *Reader) U64() uint64 {
	if !r.need(8) {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.fail(err)
	return v
}

func (r *Reader) I64() int64 {
	if !r.need(8) {
		return 0
	}
	v, err := r.dec.ReadInt64(binary.LittleEndian)
	r.fail(err)
	return v
}

func (r *Reader) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(r.Bytes(PublicKeyLen))
}

// FixedString reads n bytes and drops trailing NUL padding.
func (r *Reader) FixedString(n int) string {
	return string(bytes.TrimRight(r.Bytes(n), "\x00"))
}
