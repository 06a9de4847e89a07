package merkle

import (
	"fmt"
	"io"

	"github.com/spacemeshos/go-merklediff/hash"
)

// NodeCount returns the number of nodes of a tree with the given number of leaves:
// each level halves the previous one, rounding up, until a single root remains.
func NodeCount(leaves int) int {
	if leaves <= 0 {
		return 0
	}
	total := leaves
	for n := leaves; n > 1; {
		n = (n + 1) / 2
		total += n
	}
	return total
}

// Build folds the leaves bottom-up into a tree. Consecutive nodes of a level are paired
// left to right and their parent hash is the digest of both hashes concatenated. A lone
// trailing node gets a parent of its own whose hash is the digest of the single child
// hash, so every level is strictly smaller than the previous one.
func Build(leaves []Node, h *hash.Hasher, blockSize int) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBlockSize, blockSize)
	}
	nodes := make([]Node, len(leaves), NodeCount(len(leaves)))
	for i, leaf := range leaves {
		if len(leaf.Hash) != h.Size() {
			return nil, fmt.Errorf("leaf %d: hash size %d, expected %d", i, len(leaf.Hash), h.Size())
		}
		nodes[i] = Node{
			Index:  i,
			Hash:   leaf.Hash,
			Offset: leaf.Offset,
			Size:   leaf.Size,
		}
	}
	start, count := 0, len(leaves)
	for depth := 1; count > 1; depth++ {
		for i := start; i < start+count; i += 2 {
			parent := Node{
				Index:  len(nodes),
				Offset: nodes[i].Offset,
				Size:   nodes[i].Size,
				Depth:  depth,
			}
			if i+1 < start+count {
				parent.Hash = h.Sum(nodes[i].Hash, nodes[i+1].Hash)
				parent.Children = []int{i, i + 1}
				parent.Size += nodes[i+1].Size
			} else {
				parent.Hash = h.Sum(nodes[i].Hash)
				parent.Children = []int{i}
			}
			nodes = append(nodes, parent)
		}
		start, count = start+count, (count+1)/2
	}
	return &Tree{
		nodes:     nodes,
		leaves:    len(leaves),
		blockSize: blockSize,
		hasher:    h,
	}, nil
}

// NewTree reads the whole stream and builds its tree.
func NewTree(r io.Reader, h *hash.Hasher, blockSize int) (*Tree, error) {
	return NewSubTree(r, h, blockSize, 0)
}

// NewSubTree builds the tree of a stream window whose first byte is at absolute offset
// base. It is used to refine a mismatched block at a finer granularity.
func NewSubTree(r io.Reader, h *hash.Hasher, blockSize int, base uint64) (*Tree, error) {
	leaves, err := ChunkLeaves(r, h, blockSize, base)
	if err != nil {
		return nil, err
	}
	return Build(leaves, h, blockSize)
}
