package stratum

import (
	"encoding/binary"
	"fmt"

	"nexus-defi/internal/merkle"
)

// LeafLen is the size of the hashed order record.
const LeafLen = 8 + 8 + 1 + 4 + 4

// EncodeLeaf packs price, amount, side, epoch index and order index
// little-endian with no padding. Tools that hash a zero-filled 33 byte
// buffer (room for u64 indices, written as u32) produce different leaves,
// so their roots will not match these.
func EncodeLeaf(o OrderLeaf) []byte {
	buf := make([]byte, LeafLen)
	binary.LittleEndian.PutUint64(buf[0:], o.Price)
	binary.LittleEndian.PutUint64(buf[8:], o.Amount)
	buf[16] = byte(o.Side)
	binary.LittleEndian.PutUint32(buf[17:], o.EpochIndex)
	binary.LittleEndian.PutUint32(buf[21:], o.OrderIndex)
	return buf
}

func HashOrder(o OrderLeaf) merkle.Hash {
	return merkle.HashLeaf(EncodeLeaf(o))
}

// BuildOrderProof hashes every order and returns the inclusion proof for
// orders[target]. An empty order list has no valid target.
func BuildOrderProof(orders []OrderLeaf, target int) (merkle.Proof, error) {
	if target < 0 || target >= len(orders) {
		return merkle.Proof{}, fmt.Errorf("%w: %d (orders: %d)", merkle.ErrIndexOutOfRange, target, len(orders))
	}
	leaves := make([]merkle.Hash, len(orders))
	for i, o := range orders {
		leaves[i] = HashOrder(o)
	}
	return merkle.Build(leaves, target)
}
