package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lp2plog "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// ProtocolID is the libp2p protocol of a comparison stream.
const ProtocolID protocol.ID = "/merklediff/1"

func newHost(o options, opts ...libp2p.Option) (host.Host, error) {
	if o.p2pLogLevel != nil {
		lp2plog.SetPrimaryCore(o.logger.Core())
		lp2plog.SetAllLoggers(lp2plog.LogLevel(*o.p2pLogLevel))
	}
	return libp2p.New(opts...)
}

// P2PListener accepts a single peer stream on a libp2p host.
type P2PListener struct {
	options
	host    host.Host
	streams chan network.Stream
	once    sync.Once
	err     error
}

// ListenP2P starts a libp2p host listening on the multiaddr, e.g. /ip4/0.0.0.0/tcp/7513.
func ListenP2P(listenAddr string, opts ...Opt) (*P2PListener, error) {
	o := applyOptions(append([]Opt{func(o *options) { o.name = "p2p" }}, opts...))
	h, err := newHost(o, libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		return nil, fmt.Errorf("%w: start p2p host on %s: %w", ErrTransport, listenAddr, err)
	}
	l := &P2PListener{options: o, host: h, streams: make(chan network.Stream, 1)}
	h.SetStreamHandler(ProtocolID, func(s network.Stream) {
		select {
		case l.streams <- s:
		default:
			o.logger.Warn("rejecting extra peer stream",
				zap.Stringer("peer", s.Conn().RemotePeer()))
			_ = s.Reset()
		}
	})
	addrs, err := l.Addrs()
	if err != nil {
		h.Close()
		return nil, err
	}
	for _, addr := range addrs {
		o.logger.Info("waiting for peer", zap.Stringer("address", addr))
	}
	return l, nil
}

// Addrs returns the full multiaddrs, including the peer id, a peer can dial.
func (l *P2PListener) Addrs() ([]ma.Multiaddr, error) {
	addrs, err := peer.AddrInfoToP2pAddrs(&peer.AddrInfo{ID: l.host.ID(), Addrs: l.host.Addrs()})
	if err != nil {
		return nil, fmt.Errorf("%w: p2p addresses: %w", ErrTransport, err)
	}
	return addrs, nil
}

// Accept waits for the first stream opened by a peer. Closing the returned Conn also
// closes the listener.
func (l *P2PListener) Accept(ctx context.Context) (*Conn, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: accept: %w", ErrTransport, ctx.Err())
	case s := <-l.streams:
		return newConn(s, l, s.Conn().RemoteMultiaddr().String(), l.options), nil
	}
}

// Close shuts the host down, closing accepted streams as well. It is safe to call more
// than once.
func (l *P2PListener) Close() error {
	l.once.Do(func() {
		l.host.RemoveStreamHandler(ProtocolID)
		l.err = l.host.Close()
	})
	return l.err
}

// DialP2P starts a client host and opens a stream to the peer at the full multiaddr,
// e.g. /ip4/10.0.0.1/tcp/7513/p2p/12D3KooW.... Closing the returned Conn stops the host.
func DialP2P(ctx context.Context, addr string, opts ...Opt) (*Conn, error) {
	o := applyOptions(append([]Opt{func(o *options) { o.name = "p2p" }}, opts...))
	maddr, err := ma.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTransport, addr, err)
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return nil, fmt.Errorf("%w: peer address %s: %w", ErrTransport, addr, err)
	}
	h, err := newHost(o, libp2p.NoListenAddrs)
	if err != nil {
		return nil, fmt.Errorf("%w: start p2p host: %w", ErrTransport, err)
	}
	ctx, cancel := context.WithTimeout(ctx, o.dialTimeout)
	defer cancel()
	if err := h.Connect(ctx, *info); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: connect %s: %w", ErrTransport, info.ID, err), h.Close())
	}
	s, err := h.NewStream(ctx, info.ID, ProtocolID)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: open stream to %s: %w", ErrTransport, info.ID, err), h.Close())
	}
	return newConn(s, h, maddr.String(), o), nil
}
