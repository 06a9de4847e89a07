package diff

import (
	"context"

	"github.com/spacemeshos/go-merklediff/merkle"
)

//go:generate mockgen -typed -package=diff -destination=./mocks.go -source=./interface.go

// Asker asks the peer whether it holds the same digest for the node. Every call is one
// exchange. Implementations are not safe for concurrent use: there is never more than
// one question in flight.
type Asker interface {
	Ask(ctx context.Context, node *merkle.Node) (bool, error)
}

// Tracer tracks the comparison process.
type Tracer interface {
	// OnExchange is called after each answered question. Level is 0 for the top-level
	// tree and i+1 for the i-th refinement level.
	OnExchange(level int, node *merkle.Node, match bool)
	// OnMismatch is called for each mismatched leaf.
	OnMismatch(level int, node *merkle.Node)
	// OnSessionDone is called once a session finishes, successfully or not.
	OnSessionDone(report *Report, err error)
}
