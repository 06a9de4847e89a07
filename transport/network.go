package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-merklediff/merkle"
)

type deadliner interface {
	SetDeadline(time.Time) error
}

type interrupter interface {
	interrupt()
}

// NetworkAsker asks questions over a duplex byte stream. It writes the local digest,
// flushes it and waits for exactly one digest of the same width from the peer.
type NetworkAsker struct {
	options
	rw        *bufio.ReadWriter
	interrupt func()
	width     int
	peer      []byte
	tracker   *tracker
}

// NewNetworkAsker creates a NetworkAsker exchanging digests of the given width. If the
// stream supports deadlines, a canceled context interrupts the pending exchange.
func NewNetworkAsker(stream io.ReadWriter, width int, opts ...Opt) *NetworkAsker {
	a := &NetworkAsker{
		options: applyOptions(opts),
		rw:      bufio.NewReadWriter(bufio.NewReader(stream), bufio.NewWriter(stream)),
		width:   width,
		peer:    make([]byte, width),
	}
	switch s := stream.(type) {
	case interrupter:
		a.interrupt = s.interrupt
	case deadliner:
		a.interrupt = func() { _ = s.SetDeadline(interruptDeadline) }
	}
	a.tracker = newTracker(a.name)
	return a
}

// Ask implements diff.Asker.
func (a *NetworkAsker) Ask(ctx context.Context, node *merkle.Node) (bool, error) {
	if len(node.Hash) != a.width {
		panic(fmt.Sprintf("BUG: digest of node %d has %d bytes, expected %d", node.Index, len(node.Hash), a.width))
	}
	if a.interrupt != nil {
		stop := context.AfterFunc(ctx, a.interrupt)
		defer stop()
	}
	start := a.clock.Now()
	match, err := a.exchange(node.Hash)
	if err != nil {
		a.tracker.latencyFailure.Observe(a.clock.Since(start).Seconds())
		if ctx.Err() != nil {
			return false, fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
		}
		return false, err
	}
	a.tracker.latency.Observe(a.clock.Since(start).Seconds())
	a.logger.Debug("exchange",
		zap.Object("node", node),
		zap.Bool("match", match))
	return match, nil
}

func (a *NetworkAsker) exchange(digest []byte) (bool, error) {
	if _, err := a.rw.Write(digest); err != nil {
		return false, fmt.Errorf("%w: write digest: %w", ErrTransport, err)
	}
	if err := a.rw.Flush(); err != nil {
		return false, fmt.Errorf("%w: flush digest: %w", ErrTransport, err)
	}
	a.tracker.sent.Add(float64(len(digest)))
	if _, err := io.ReadFull(a.rw, a.peer); err != nil {
		return false, fmt.Errorf("%w: read digest: %w", ErrTransport, err)
	}
	a.tracker.received.Add(float64(len(a.peer)))
	return bytes.Equal(digest, a.peer), nil
}
