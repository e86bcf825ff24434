package merkle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLeaves(n int) []Hash {
	leaves := make([]Hash, n)
	for i := range leaves {
		leaves[i] = HashLeaf([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return leaves
}

// TestProofRoundTrip checks every leaf of trees up to 17 leaves, covering odd levels.
func TestProofRoundTrip(t *testing.T) {
	for n := 1; n <= 17; n++ {
		leaves := testLeaves(n)
		root, err := Root(leaves)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			proof, err := Build(leaves, i)
			require.NoError(t, err)
			assert.Equal(t, root, proof.Root, "n=%d i=%d", n, i)
			assert.Equal(t, leaves[i], proof.Leaf)
			assert.True(t, proof.Verify(), "n=%d i=%d", n, i)
		}
	}
}

func TestSingleLeafRootIsLeaf(t *testing.T) {
	leaves := testLeaves(1)
	proof, err := Build(leaves, 0)
	require.NoError(t, err)
	assert.Equal(t, leaves[0], proof.Root)
	assert.Empty(t, proof.Siblings)
}

func TestOddLevelDuplicatesLastNode(t *testing.T) {
	leaves := testLeaves(3)
	want := HashPair(HashPair(leaves[0], leaves[1]), HashPair(leaves[2], leaves[2]))
	root, err := Root(leaves)
	require.NoError(t, err)
	assert.Equal(t, want, root)

	proof, err := Build(leaves, 2)
	require.NoError(t, err)
	require.Len(t, proof.Siblings, 2)
	assert.Equal(t, leaves[2], proof.Siblings[0])
	assert.Equal(t, HashPair(leaves[0], leaves[1]), proof.Siblings[1])
}

func TestTamperedProofFails(t *testing.T) {
	leaves := testLeaves(6)
	proof, err := Build(leaves, 4)
	require.NoError(t, err)
	assert.False(t, Verify(leaves[3], 4, 6, proof.Siblings, proof.Root))
	assert.False(t, Verify(proof.Leaf, 5, 6, proof.Siblings, proof.Root))
}

func TestVerifyRejectsIndexPastLastLeaf(t *testing.T) {
	leaves := testLeaves(3)
	proof, err := Build(leaves, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, proof.Count)

	// Leaf 2 pairs with its own copy, so index 3 reaches the same root.
	assert.True(t, Verify(proof.Leaf, 2, 3, proof.Siblings, proof.Root))
	assert.False(t, Verify(proof.Leaf, 3, 3, proof.Siblings, proof.Root))
	// The bound is only as good as the count the caller supplies.
	assert.True(t, Verify(proof.Leaf, 3, 4, proof.Siblings, proof.Root))

	proof.Index = 3
	assert.False(t, proof.Verify())
}

func TestVerifyRejectsWrongPathLength(t *testing.T) {
	leaves := testLeaves(5)
	proof, err := Build(leaves, 1)
	require.NoError(t, err)
	require.Len(t, proof.Siblings, 3)
	assert.False(t, Verify(proof.Leaf, 1, 5, proof.Siblings[:2], proof.Root))
	assert.False(t, Verify(proof.Leaf, 1, 5, append(proof.Siblings, proof.Root), proof.Root))
	assert.False(t, Verify(proof.Leaf, 0, 0, nil, proof.Leaf))
}

func TestBuildIndexOutOfRange(t *testing.T) {
	leaves := testLeaves(4)
	for _, idx := range []int{-1, 4, 100} {
		_, err := Build(leaves, idx)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "idx=%d err=%v", idx, err)
	}
	_, err := Build(nil, 0)
	assert.ErrorIs(t, err, ErrNoLeaves)
}
