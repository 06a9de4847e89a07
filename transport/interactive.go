package transport

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spacemeshos/go-merklediff/merkle"
)

// InteractiveAsker lets a person play the peer: each question is printed and answered
// with y/yes or n/no. Any other answer repeats the question.
type InteractiveAsker struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewInteractiveAsker creates an InteractiveAsker.
func NewInteractiveAsker(in io.Reader, out io.Writer) *InteractiveAsker {
	return &InteractiveAsker{in: bufio.NewScanner(in), out: out}
}

// Ask implements diff.Asker.
func (a *InteractiveAsker) Ask(ctx context.Context, node *merkle.Node) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		if _, err := fmt.Fprintf(a.out, "node %d depth %d offset %d size %d hash %s\nmatch? [y/n] ",
			node.Index, node.Depth, node.Offset, node.Size, hex.EncodeToString(node.Hash)); err != nil {
			return false, fmt.Errorf("%w: prompt: %w", ErrTransport, err)
		}
		if !a.in.Scan() {
			err := a.in.Err()
			if err == nil {
				err = io.EOF
			}
			return false, fmt.Errorf("%w: read answer: %w", ErrTransport, err)
		}
		switch strings.ToLower(strings.TrimSpace(a.in.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// EchoAsker is the peer of a self comparison: every digest matches. It exercises the
// local tree without a connection.
type EchoAsker struct{}

// Ask implements diff.Asker.
func (EchoAsker) Ask(ctx context.Context, _ *merkle.Node) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return true, nil
}
