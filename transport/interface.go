package transport

import (
	"io"
	"time"
)

//go:generate mockgen -typed -package=transport -destination=./mocks.go -source=./interface.go

// peerStream is a duplex byte stream that supports deadlines, such as a TCP connection
// or a libp2p stream.
type peerStream interface {
	io.ReadWriteCloser
	SetDeadline(time.Time) error
}
