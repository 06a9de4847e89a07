package transport

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// interruptDeadline is a deadline in the past.
var interruptDeadline = time.Unix(1, 0)

// deadlineAdjuster keeps pushing the deadline of the stream forward while data flows, so
// that only an idle peer makes I/O fail. The deadline is moved whenever less than half of
// the timeout is left, which keeps the number of SetDeadline calls low for chatty
// protocols.
type deadlineAdjuster struct {
	peerStream
	desc         string
	timeout      time.Duration
	clock        clockwork.Clock
	chunkSize    int
	deadline     time.Time
	totalRead    int
	totalWritten int
	interrupted  atomic.Bool
}

func newDeadlineAdjuster(stream peerStream, desc string, timeout time.Duration) *deadlineAdjuster {
	return &deadlineAdjuster{
		peerStream: stream,
		desc:       desc,
		timeout:    timeout,
		clock:      clockwork.NewRealClock(),
		chunkSize:  defaultChunkSize,
	}
}

func (dadj *deadlineAdjuster) augmentError(what string, err error) error {
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		return err
	}
	return fmt.Errorf("%s: %s: %d bytes read, %d bytes written, timeout %v: %w",
		dadj.desc, what, dadj.totalRead, dadj.totalWritten, dadj.timeout, err)
}

func (dadj *deadlineAdjuster) adjust() error {
	if dadj.interrupted.Load() {
		return nil
	}
	now := dadj.clock.Now()
	if !dadj.deadline.IsZero() && dadj.deadline.Sub(now) >= dadj.timeout/2 {
		return nil
	}
	dadj.deadline = now.Add(dadj.timeout)
	if err := dadj.SetDeadline(dadj.deadline); err != nil {
		return err
	}
	if dadj.interrupted.Load() {
		// interrupt raced with the deadline update above
		return dadj.SetDeadline(interruptDeadline)
	}
	return nil
}

// interrupt makes pending and future I/O fail. It may be called concurrently with
// Read and Write.
func (dadj *deadlineAdjuster) interrupt() {
	dadj.interrupted.Store(true)
	_ = dadj.SetDeadline(interruptDeadline)
}

// Read reads at most one chunk so that it never waits for more data than the peer has
// already sent.
func (dadj *deadlineAdjuster) Read(p []byte) (int, error) {
	if err := dadj.adjust(); err != nil {
		return 0, fmt.Errorf("%s: set deadline: %w", dadj.desc, err)
	}
	if len(p) > dadj.chunkSize {
		p = p[:dadj.chunkSize]
	}
	n, err := dadj.peerStream.Read(p)
	dadj.totalRead += n
	if err != nil {
		return n, dadj.augmentError("read", err)
	}
	return n, nil
}

func (dadj *deadlineAdjuster) Write(p []byte) (n int, err error) {
	var m int
	for n < len(p) {
		if err := dadj.adjust(); err != nil {
			return n, fmt.Errorf("%s: set deadline: %w", dadj.desc, err)
		}
		end := min(n+dadj.chunkSize, len(p))
		m, err = dadj.peerStream.Write(p[n:end])
		n += m
		dadj.totalWritten += m
		if err != nil {
			return n, dadj.augmentError("write", err)
		}
	}
	return n, nil
}
