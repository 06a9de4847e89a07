package transport

import (
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Conn is a connection to the peer of a comparison session.
type Conn struct {
	options
	stream peerStream
	closer io.Closer
	remote string
	once   sync.Once
	err    error
}

func newConn(stream peerStream, closer io.Closer, remote string, opts options) *Conn {
	c := &Conn{options: opts, stream: stream, closer: closer, remote: remote}
	if opts.timeout > 0 {
		dadj := newDeadlineAdjuster(stream, opts.name+" "+remote, opts.timeout)
		dadj.clock = opts.clock
		c.stream = dadj
	}
	c.logger.Info("connected to peer",
		zap.String("transport", opts.name),
		zap.String("remote", remote))
	return c
}

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// Asker returns a NetworkAsker exchanging digests of the given width over the connection.
func (c *Conn) Asker(width int) *NetworkAsker {
	return NewNetworkAsker(c.stream, width, func(o *options) { *o = c.options })
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		c.err = c.stream.Close()
		if c.closer != nil {
			c.err = errors.Join(c.err, c.closer.Close())
		}
	})
	return c.err
}
