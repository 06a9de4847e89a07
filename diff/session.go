package diff

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-merklediff/merkle"
)

// Report is the outcome of a full comparison session.
type Report struct {
	// Blocks are the mismatched leaf indices of the top-level tree in discovery order.
	Blocks []int
	// Mismatches are the mismatched leaves of the finest level that was compared.
	// Without refinement they are the top-level leaves of Blocks.
	Mismatches []merkle.Node
	// Refined is true if refinement levels were applied.
	Refined bool
	// Exchanges is the total number of questions asked across all levels.
	Exchanges int
	// Nodes is the number of nodes of the top-level tree.
	Nodes int
}

// Identical returns true if no difference was found.
func (r *Report) Identical() bool {
	return len(r.Blocks) == 0
}

// Offsets returns the absolute offsets of the finest-level mismatches.
func (r *Report) Offsets() []uint64 {
	offsets := make([]uint64, len(r.Mismatches))
	for i := range r.Mismatches {
		offsets[i] = r.Mismatches[i].Offset
	}
	return offsets
}

// Locations returns what a session prints for each difference: block indices of the
// top-level tree, or absolute byte offsets once refinement was applied.
func (r *Report) Locations() []uint64 {
	if r.Refined {
		return r.Offsets()
	}
	locs := make([]uint64, len(r.Blocks))
	for i, b := range r.Blocks {
		locs[i] = uint64(b)
	}
	return locs
}

// Session compares a local stream with the peer's: one top-level diff followed by a
// refinement pass per configured level. Both peers must use the same levels.
type Session struct {
	options
	engine *Engine
}

// NewSession creates a Session.
func NewSession(asker Asker, opts ...Opt) *Session {
	s := &Session{options: defaultOptions()}
	for _, opt := range opts {
		opt(&s.options)
	}
	s.engine = &Engine{options: s.options, asker: asker}
	return s
}

// ValidateLevels checks that refinement block sizes are positive, strictly decreasing
// and smaller than the top-level block size.
func ValidateLevels(blockSize int, levels []int) error {
	prev := blockSize
	for _, bs := range levels {
		if bs <= 0 || bs >= prev {
			return fmt.Errorf("%w: refinement sizes %v must be positive, strictly decreasing and below %d",
				merkle.ErrBlockSize, levels, blockSize)
		}
		prev = bs
	}
	return nil
}

// Run compares the tree built from rs with the peer's and refines the mismatched
// leaves. Refinement proceeds sequentially, level by level, in discovery order.
func (s *Session) Run(ctx context.Context, tree *merkle.Tree, rs io.ReadSeeker) (*Report, error) {
	report, err := s.run(ctx, tree, rs)
	s.tracer.OnSessionDone(report, err)
	return report, err
}

func (s *Session) run(ctx context.Context, tree *merkle.Tree, rs io.ReadSeeker) (*Report, error) {
	if err := ValidateLevels(tree.BlockSize(), s.levels); err != nil {
		return nil, err
	}
	if len(s.levels) > 0 && rs == nil {
		return nil, errors.New("refinement requires a seekable stream")
	}
	report := &Report{Nodes: tree.Len(), Refined: len(s.levels) > 0}
	res, err := s.engine.Diff(ctx, tree)
	report.Exchanges = res.Exchanges
	if err != nil {
		return report, err
	}
	report.Blocks = res.Mismatches
	report.Mismatches = make([]merkle.Node, 0, len(res.Mismatches))
	for _, i := range res.Mismatches {
		report.Mismatches = append(report.Mismatches, *tree.Node(i))
	}
	s.logger.Info("tree compared",
		zap.Int("nodes", report.Nodes),
		zap.Int("exchanges", res.Exchanges),
		zap.Int("mismatched_blocks", len(res.Mismatches)))

	refiner := NewRefiner(s.engine, tree.Hasher())
	for i, bs := range s.levels {
		var (
			next      []merkle.Node
			exchanges int
		)
		for j := range report.Mismatches {
			res, leaves, err := refiner.refine(ctx, rs, &report.Mismatches[j], bs, i+1)
			exchanges += res.Exchanges
			report.Exchanges += res.Exchanges
			if err != nil {
				return report, err
			}
			next = append(next, leaves...)
		}
		s.logger.Info("refinement level compared",
			zap.Int("level", i+1),
			zap.Int("block_size", bs),
			zap.Int("blocks", len(report.Mismatches)),
			zap.Int("exchanges", exchanges),
			zap.Int("mismatches", len(next)))
		report.Mismatches = next
	}
	return report, nil
}
