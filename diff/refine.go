package diff

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-merklediff/hash"
	"github.com/spacemeshos/go-merklediff/merkle"
)

// Refiner narrows a mismatched leaf down by comparing a finer-grained tree built over
// the bytes the leaf covers.
type Refiner struct {
	engine *Engine
	hasher *hash.Hasher
}

// NewRefiner creates a Refiner that asks its questions through the engine.
func NewRefiner(engine *Engine, h *hash.Hasher) *Refiner {
	return &Refiner{engine: engine, hasher: h}
}

// Refine re-reads the bytes covered by a node found to differ, chunks them at blockSize,
// builds a sub-tree whose offsets continue from node.Offset and diffs it. The returned
// leaves carry absolute stream offsets. A node no larger than blockSize cannot be
// narrowed down: it is returned as a single leaf without asking.
func (r *Refiner) Refine(
	ctx context.Context,
	rs io.ReadSeeker,
	node *merkle.Node,
	blockSize int,
) (Result, []merkle.Node, error) {
	return r.refine(ctx, rs, node, blockSize, 1)
}

func (r *Refiner) refine(
	ctx context.Context,
	rs io.ReadSeeker,
	node *merkle.Node,
	blockSize, level int,
) (Result, []merkle.Node, error) {
	if _, err := rs.Seek(int64(node.Offset), io.SeekStart); err != nil {
		return Result{}, nil, fmt.Errorf("%w: seek to %d: %w", merkle.ErrStream, node.Offset, err)
	}
	tree, err := merkle.NewSubTree(io.LimitReader(rs, int64(node.Size)), r.hasher, blockSize, node.Offset)
	if err != nil {
		return Result{}, nil, fmt.Errorf("refine block at offset %d: %w", node.Offset, err)
	}
	var res Result
	r.engine.logger.Debug("refining block",
		zap.Int("level", level),
		zap.Uint64("offset", node.Offset),
		zap.Uint64("size", node.Size),
		zap.Int("block_size", blockSize),
		zap.Int("nodes", tree.Len()))
	root, err := tree.Root()
	if err != nil {
		return Result{}, nil, err
	}
	if root.IsLeaf() {
		// the block fits in one finer block: its digest is the one already found to differ
		r.engine.mismatch(&res, level, root)
		return res, []merkle.Node{*root}, nil
	}
	res, err = r.engine.diff(ctx, tree, level)
	if err != nil {
		return res, nil, err
	}
	leaves := make([]merkle.Node, 0, len(res.Mismatches))
	for _, i := range res.Mismatches {
		leaves = append(leaves, *tree.Node(i))
	}
	return res, leaves, nil
}
