// Package merkle builds binary hash trees over fixed-size blocks of a byte stream.
//
// Nodes live in a flat, append-only arena: the leaves occupy the first positions in
// stream order, every level is appended after the previous one and the root is the last
// node. Trees are immutable once built.
package merkle

import (
	"bytes"
	"sort"

	"github.com/spacemeshos/go-merklediff/hash"
)

// Tree is a binary hash tree stored as an arena of nodes.
type Tree struct {
	nodes     []Node
	leaves    int
	blockSize int
	hasher    *hash.Hasher
}

// Len returns the total number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node at the arena index.
func (t *Tree) Node(i int) *Node {
	return &t.nodes[i]
}

// Leaves returns the number of leaves.
func (t *Tree) Leaves() int {
	return t.leaves
}

// Root returns the last node of the arena. It fails with ErrEmptyTree for a tree
// without nodes.
func (t *Tree) Root() (*Node, error) {
	if t == nil || len(t.nodes) == 0 {
		return nil, ErrEmptyTree
	}
	return &t.nodes[len(t.nodes)-1], nil
}

// BlockSize returns the leaf block size the tree was built with.
func (t *Tree) BlockSize() int {
	return t.blockSize
}

// Base returns the absolute offset of the first byte covered by the tree.
func (t *Tree) Base() uint64 {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[0].Offset
}

// Size returns the number of stream bytes covered by the tree.
func (t *Tree) Size() uint64 {
	root, err := t.Root()
	if err != nil {
		return 0
	}
	return root.Size
}

// Hasher returns the digest algorithm of the tree.
func (t *Tree) Hasher() *hash.Hasher {
	return t.hasher
}

// LeafAt returns the leaf covering the absolute offset.
func (t *Tree) LeafAt(offset uint64) (*Node, bool) {
	i := sort.Search(t.leaves, func(i int) bool {
		return t.nodes[i].End() > offset
	})
	if i == t.leaves || !t.nodes[i].Contains(offset) {
		return nil, false
	}
	return &t.nodes[i], true
}

// Equal returns true if both trees have the same shape and node hashes.
func (t *Tree) Equal(other *Tree) bool {
	if t.Len() != other.Len() || t.leaves != other.leaves {
		return false
	}
	for i := range t.nodes {
		a, b := &t.nodes[i], &other.nodes[i]
		if !bytes.Equal(a.Hash, b.Hash) || a.Offset != b.Offset || a.Size != b.Size ||
			a.Depth != b.Depth || len(a.Children) != len(b.Children) {
			return false
		}
		for n, c := range a.Children {
			if b.Children[n] != c {
				return false
			}
		}
	}
	return true
}
