package merkle

import (
	"bytes"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-merklediff/hash"
)

func buildTree(tb testing.TB, data []byte, blockSize int) *Tree {
	tb.Helper()
	tree, err := NewTree(bytes.NewReader(data), hash.MustNew(hash.SHA256), blockSize)
	require.NoError(tb, err)
	return tree
}

func TestNodeCount(t *testing.T) {
	for _, tc := range []struct {
		leaves, nodes int
	}{
		{0, 0},
		{1, 1},
		{2, 3},
		{3, 6},
		{4, 7},
		{5, 11},
		{8, 15},
		{9, 20},
	} {
		require.Equal(t, tc.nodes, NodeCount(tc.leaves), "leaves=%d", tc.leaves)
		if tc.leaves > 0 {
			tree := buildTree(t, make([]byte, tc.leaves), 1)
			require.Equal(t, tc.nodes, tree.Len())
			require.Equal(t, tc.leaves, tree.Leaves())
		}
	}
}

func TestBuildShape(t *testing.T) {
	h := hash.MustNew(hash.SHA256)
	data := []byte("abcde")
	tree := buildTree(t, data, 1)
	// levels 5, 3, 2, 1
	require.Equal(t, 11, tree.Len())

	for i := 0; i < 5; i++ {
		n := tree.Node(i)
		require.True(t, n.IsLeaf())
		require.Equal(t, 0, n.Depth)
		require.Equal(t, uint64(i), n.Offset)
		require.Equal(t, h.Sum(data[i:i+1]), n.Hash)
	}

	pair := tree.Node(5)
	require.Equal(t, []int{0, 1}, pair.Children)
	require.Equal(t, h.Sum(tree.Node(0).Hash, tree.Node(1).Hash), pair.Hash)
	require.Equal(t, 1, pair.Depth)
	require.Equal(t, uint64(2), pair.Size)

	lone := tree.Node(7)
	require.Equal(t, []int{4}, lone.Children)
	require.Equal(t, h.Sum(tree.Node(4).Hash), lone.Hash)
	require.NotEqual(t, tree.Node(4).Hash, lone.Hash)
	require.Equal(t, uint64(4), lone.Offset)

	require.Equal(t, []int{5, 6}, tree.Node(8).Children)
	require.Equal(t, []int{7}, tree.Node(9).Children)

	root, err := tree.Root()
	require.NoError(t, err)
	require.Equal(t, 10, root.Index)
	require.Equal(t, []int{8, 9}, root.Children)
	require.Equal(t, 3, root.Depth)
	require.Equal(t, uint64(0), root.Offset)
	require.Equal(t, uint64(5), root.Size)
	require.Equal(t, uint64(5), tree.Size())
}

func TestBuildSingleLeaf(t *testing.T) {
	tree := buildTree(t, []byte("abc"), 16)
	require.Equal(t, 1, tree.Len())
	root, err := tree.Root()
	require.NoError(t, err)
	require.True(t, root.IsLeaf())
	require.Equal(t, tree.Node(0), root)
}

func TestBuildEmpty(t *testing.T) {
	_, err := NewTree(bytes.NewReader(nil), hash.MustNew(hash.SHA256), 16)
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = Build(nil, hash.MustNew(hash.SHA256), 16)
	require.ErrorIs(t, err, ErrEmptyTree)

	var tree *Tree
	_, err = tree.Root()
	require.ErrorIs(t, err, ErrEmptyTree)
	_, err = (&Tree{}).Root()
	require.ErrorIs(t, err, ErrEmptyTree)
}

func TestBuildRejectsForeignHashSize(t *testing.T) {
	leaves, err := ChunkLeaves(bytes.NewReader([]byte("abcd")), hash.MustNew(hash.XXHash), 2, 0)
	require.NoError(t, err)
	_, err = Build(leaves, hash.MustNew(hash.SHA256), 2)
	require.Error(t, err)
}

func TestBuildDeterministic(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 4096)
	for i := 0; i < 20; i++ {
		var data []byte
		f.Fuzz(&data)
		if len(data) == 0 {
			continue
		}
		var bs uint8
		f.Fuzz(&bs)
		blockSize := int(bs)%64 + 1

		a := buildTree(t, data, blockSize)
		b := buildTree(t, bytes.Clone(data), blockSize)
		require.True(t, a.Equal(b))
		require.Equal(t, NodeCount(a.Leaves()), a.Len())

		root, err := a.Root()
		require.NoError(t, err)
		require.Equal(t, uint64(len(data)), root.Size)
		for j := 0; j < a.Len(); j++ {
			n := a.Node(j)
			require.Equal(t, j, n.Index)
			require.LessOrEqual(t, len(n.Children), 2)
			for _, c := range n.Children {
				require.Less(t, c, j, "children precede their parent")
				require.Equal(t, n.Depth-1, a.Node(c).Depth)
			}
		}
	}
}

func TestBuildPairingOrderMatters(t *testing.T) {
	h := hash.MustNew(hash.SHA256)
	leaves, err := ChunkLeaves(bytes.NewReader([]byte("abcd")), h, 1, 0)
	require.NoError(t, err)
	tree, err := Build(leaves, h, 1)
	require.NoError(t, err)

	swapped := []Node{leaves[1], leaves[0], leaves[2], leaves[3]}
	other, err := Build(swapped, h, 1)
	require.NoError(t, err)

	r1, _ := tree.Root()
	r2, _ := other.Root()
	require.NotEqual(t, r1.Hash, r2.Hash)
}

func TestSubTreeOffsets(t *testing.T) {
	h := hash.MustNew(hash.SHA256)
	tree, err := NewSubTree(bytes.NewReader([]byte("abcdef")), h, 2, 4096)
	require.NoError(t, err)
	require.Equal(t, uint64(4096), tree.Base())
	require.Equal(t, 2, tree.BlockSize())
	require.Equal(t, uint64(4100), tree.Node(2).Offset)

	leaf, ok := tree.LeafAt(4101)
	require.True(t, ok)
	require.Equal(t, 2, leaf.Index)
	_, ok = tree.LeafAt(4102)
	require.False(t, ok)
	_, ok = tree.LeafAt(100)
	require.False(t, ok)
}

func TestTreeEqual(t *testing.T) {
	a := buildTree(t, []byte("hello world"), 3)
	require.True(t, a.Equal(buildTree(t, []byte("hello world"), 3)))
	require.False(t, a.Equal(buildTree(t, []byte("hello wOrld"), 3)))
	require.False(t, a.Equal(buildTree(t, []byte("hello world"), 4)))
}
