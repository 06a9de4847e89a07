package merkle

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Node is a vertex of the tree. Nodes reference their children by arena index.
type Node struct {
	// Index is the position of the node in its tree.
	Index int
	// Hash is the digest of the block (leaves) or of the children's hashes.
	Hash []byte
	// Children holds 0 (leaf), 1 (promoted lone node) or 2 arena indices.
	Children []int
	// Offset is the absolute stream offset of the first byte covered by the node.
	Offset uint64
	// Size is the number of stream bytes covered by the node.
	Size uint64
	// Depth is the distance from the leaf level.
	Depth int
}

// IsLeaf returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// End returns the offset right after the last byte covered by the node.
func (n *Node) End() uint64 {
	return n.Offset + n.Size
}

// Contains returns true if the absolute stream offset falls within the node.
func (n *Node) Contains(offset uint64) bool {
	return offset >= n.Offset && offset < n.End()
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%d depth=%d offset=%d size=%d hash=%s children=%v",
		n.Index, n.Depth, n.Offset, n.Size, hex.EncodeToString(n.Hash), n.Children)
}

// ShortString returns the node index and the first bytes of its hash, for logging.
func (n *Node) ShortString() string {
	h := n.Hash
	if len(h) > 5 {
		h = h[:5]
	}
	return fmt.Sprintf("%d/%s", n.Index, hex.EncodeToString(h))
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (n *Node) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("index", n.Index)
	enc.AddInt("depth", n.Depth)
	enc.AddUint64("offset", n.Offset)
	enc.AddUint64("size", n.Size)
	enc.AddString("hash", hex.EncodeToString(n.Hash))
	return nil
}
