// Package diff walks two structurally identical hash trees in lockstep, one on each side
// of an Asker, and reports the leaves whose digests disagree.
package diff

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-merklediff/merkle"
)

type nullTracer struct{}

func (nullTracer) OnExchange(int, *merkle.Node, bool) {}
func (nullTracer) OnMismatch(int, *merkle.Node)       {}
func (nullTracer) OnSessionDone(*Report, error)       {}

type options struct {
	logger      *zap.Logger
	tracer      Tracer
	levels      []int
	askLeafRoot bool
}

func defaultOptions() options {
	return options{
		logger: zap.NewNop(),
		tracer: nullTracer{},
	}
}

// Opt configures an Engine or a Session.
type Opt func(*options)

// WithLogger specifies the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer specifies a tracer.
func WithTracer(t Tracer) Opt {
	return func(o *options) {
		o.tracer = t
	}
}

// WithRefinement specifies the finer block sizes a session applies, in order, to the
// mismatched leaves. Ignored by Engine.
func WithRefinement(levels ...int) Opt {
	return func(o *options) {
		o.levels = levels
	}
}

// WithLeafRootQuestion makes a tree made of a single block ask about its root, which
// is otherwise never asked. Without it a difference in a file of one block goes
// unnoticed. It adds an exchange to the protocol, so both peers must enable it.
func WithLeafRootQuestion() Opt {
	return func(o *options) {
		o.askLeafRoot = true
	}
}

// Result is the outcome of a single tree comparison.
type Result struct {
	// Mismatches are arena indices of mismatched leaves in discovery order. For the
	// top-level tree they are also block indices.
	Mismatches []int
	// Exchanges is the number of questions asked.
	Exchanges int
}

// Engine compares a local tree with the peer's tree behind an Asker.
type Engine struct {
	options
	asker Asker
}

// New creates an Engine.
func New(asker Asker, opts ...Opt) *Engine {
	e := &Engine{options: defaultOptions(), asker: asker}
	for _, opt := range opts {
		opt(&e.options)
	}
	return e
}

// Diff walks the tree breadth-first starting from the children of the root. The root
// digest itself is never asked, so a single-block tree takes no exchange unless
// WithLeafRootQuestion is set. Matching subtrees are pruned, mismatching inner nodes are
// descended into and mismatching leaves are recorded.
// The peer must run Diff over a tree of the same shape so that both sides ask about
// the same nodes in the same order.
func (e *Engine) Diff(ctx context.Context, tree *merkle.Tree) (Result, error) {
	return e.diff(ctx, tree, 0)
}

func (e *Engine) diff(ctx context.Context, tree *merkle.Tree, level int) (Result, error) {
	var res Result
	root, err := tree.Root()
	if err != nil {
		return res, err
	}
	if root.IsLeaf() {
		if !e.askLeafRoot {
			e.logger.Debug("single block tree, nothing to ask", zap.Int("level", level))
			return res, nil
		}
		match, err := e.ask(ctx, &res, level, root)
		if err != nil {
			return res, err
		}
		if !match {
			e.mismatch(&res, level, root)
		}
		return res, nil
	}
	queue := []int{root.Index}
	for len(queue) > 0 {
		n := tree.Node(queue[0])
		queue = queue[1:]
		for _, c := range n.Children {
			child := tree.Node(c)
			match, err := e.ask(ctx, &res, level, child)
			switch {
			case err != nil:
				return res, err
			case match:
			case child.IsLeaf():
				e.mismatch(&res, level, child)
			default:
				queue = append(queue, c)
			}
		}
	}
	e.logger.Debug("tree compared",
		zap.Int("level", level),
		zap.Int("nodes", tree.Len()),
		zap.Int("exchanges", res.Exchanges),
		zap.Int("mismatches", len(res.Mismatches)))
	return res, nil
}

func (e *Engine) ask(ctx context.Context, res *Result, level int, n *merkle.Node) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	match, err := e.asker.Ask(ctx, n)
	if err != nil {
		return false, fmt.Errorf("ask node %d at offset %d: %w", n.Index, n.Offset, err)
	}
	res.Exchanges++
	e.tracer.OnExchange(level, n, match)
	return match, nil
}

func (e *Engine) mismatch(res *Result, level int, n *merkle.Node) {
	res.Mismatches = append(res.Mismatches, n.Index)
	e.tracer.OnMismatch(level, n)
	e.logger.Debug("leaf mismatch", zap.Int("level", level), zap.Object("node", n))
}
