package merkle

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Fprint writes one line per node in arena order:
// index, depth, offset, size, hex digest and children.
func Fprint(w io.Writer, t *Tree) error {
	bw := bufio.NewWriter(w)
	for i := range t.nodes {
		n := &t.nodes[i]
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%s\t%v\n",
			n.Index, n.Depth, n.Offset, n.Size, hex.EncodeToString(n.Hash), n.Children); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FprintHierarchy writes the tree depth-first from the root, indenting each node by its
// distance from the root.
func FprintHierarchy(w io.Writer, t *Tree) error {
	root, err := t.Root()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	stack := []int{root.Index}
	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		indent := strings.Repeat("  ", root.Depth-n.Depth)
		if _, err := fmt.Fprintf(bw, "%s%s [%d, %d)\n",
			indent, hex.EncodeToString(n.Hash), n.Offset, n.End()); err != nil {
			return err
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return bw.Flush()
}
