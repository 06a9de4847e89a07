package transport

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Listener accepts a peer over TCP.
type Listener struct {
	options
	ln net.Listener
}

// Listen starts listening on the TCP address.
func Listen(ctx context.Context, addr string, opts ...Opt) (*Listener, error) {
	o := applyOptions(opts)
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %w", ErrTransport, addr, err)
	}
	o.logger.Info("waiting for peer", zap.Stringer("address", ln.Addr()))
	return &Listener{options: o, ln: ln}, nil
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for a single peer. Canceling the context closes the listener.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()
	conn, err := l.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: accept: %w", ErrTransport, ctx.Err())
		}
		return nil, fmt.Errorf("%w: accept: %w", ErrTransport, err)
	}
	return newConn(conn, nil, conn.RemoteAddr().String(), l.options), nil
}

// Close stops listening. Accepted connections stay open.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Dial connects to a listening peer over TCP.
func Dial(ctx context.Context, addr string, opts ...Opt) (*Conn, error) {
	o := applyOptions(opts)
	d := net.Dialer{Timeout: o.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, addr, err)
	}
	return newConn(conn, nil, conn.RemoteAddr().String(), o), nil
}
