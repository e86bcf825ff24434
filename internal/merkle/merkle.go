// Package merkle builds binary sha256 merkle trees and inclusion proofs.
//
// A level with an odd number of nodes is padded by repeating its last node
// before pairing, so every parent is sha256(left || right).
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrNoLeaves        = errors.New("merkle tree has no leaves")
	ErrIndexOutOfRange = errors.New("leaf index out of range")
)

type Hash [sha256.Size]byte

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// HashLeaf hashes an encoded leaf record.
func HashLeaf(data []byte) Hash {
	return sha256.Sum256(data)
}

func HashPair(left, right Hash) Hash {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Proof is the sibling path from a leaf to the root, bottom level first.
type Proof struct {
	Index    int
	Count    int
	Leaf     Hash
	Root     Hash
	Siblings []Hash
}

// Build computes the root over leaves and the inclusion proof for leaves[index].
func Build(leaves []Hash, index int) (Proof, error) {
	if len(leaves) == 0 {
		return Proof{}, ErrNoLeaves
	}
	if index < 0 || index >= len(leaves) {
		return Proof{}, fmt.Errorf("%w: %d (leaves: %d)", ErrIndexOutOfRange, index, len(leaves))
	}
	proof := Proof{Index: index, Count: len(leaves), Leaf: leaves[index]}

	level := append([]Hash(nil), leaves...)
	idx := index
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		proof.Siblings = append(proof.Siblings, level[idx^1])
		next := make([]Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashPair(level[i], level[i+1]))
		}
		level = next
		idx /= 2
	}
	proof.Root = level[0]
	return proof, nil
}

// Root returns only the root over leaves.
func Root(leaves []Hash) (Hash, error) {
	p, err := Build(leaves, 0)
	if err != nil {
		return Hash{}, err
	}
	return p.Root, nil
}

// Verify recomputes the root from leaf, its index in a tree of count leaves
// and the sibling path. Padding repeats the last node, so without count an
// index past the end would still hash to the root.
func Verify(leaf Hash, index, count int, siblings []Hash, root Hash) bool {
	if index < 0 || index >= count || len(siblings) != depth(count) {
		return false
	}
	cur := leaf
	idx := index
	for _, sib := range siblings {
		if idx%2 == 0 {
			cur = HashPair(cur, sib)
		} else {
			cur = HashPair(sib, cur)
		}
		idx /= 2
	}
	return cur == root
}

// depth is the number of levels above the leaves.
func depth(count int) int {
	d := 0
	for count > 1 {
		count = (count + 1) / 2
		d++
	}
	return d
}

// Verify checks the proof against its own root.
func (p Proof) Verify() bool {
	return Verify(p.Leaf, p.Index, p.Count, p.Siblings, p.Root)
}

// HexSiblings renders the sibling path as lowercase hex strings.
func (p Proof) HexSiblings() []string {
	out := make([]string, len(p.Siblings))
	for i, s := range p.Siblings {
		out[i] = s.Hex()
	}
	return out
}
