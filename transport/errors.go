// Package transport carries digest questions between the two peers of a comparison.
//
// The wire format is a plain sequence of fixed-width digests with no framing. For each
// question both peers write their digest, flush it and then read exactly one digest
// from the other side.
package transport

import "errors"

// ErrTransport wraps every failure to exchange a digest with the peer.
var ErrTransport = errors.New("transport error")
