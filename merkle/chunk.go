package merkle

import (
	"fmt"
	"io"

	"github.com/spacemeshos/go-merklediff/hash"
)

// ChunkLeaves splits the stream into blocks of up to blockSize bytes and digests each
// block into a leaf. The final block may be shorter than blockSize. Leaf offsets start
// at base. A zero-length stream yields no leaves and no error; callers must check for
// that before building a tree. Blocks are digested as they are read, so the block size
// does not bound memory use.
func ChunkLeaves(r io.Reader, h *hash.Hasher, blockSize int, base uint64) ([]Node, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBlockSize, blockSize)
	}
	var (
		leaves []Node
		offset = base
	)
	for {
		digest, n, err := h.SumReader(io.LimitReader(r, int64(blockSize)))
		if err != nil {
			return nil, fmt.Errorf("%w: read block %d at offset %d: %w", ErrStream, len(leaves), offset, err)
		}
		if n == 0 {
			return leaves, nil
		}
		leaves = append(leaves, Node{
			Index:  len(leaves),
			Hash:   digest,
			Offset: offset,
			Size:   uint64(n),
		})
		offset += uint64(n)
		if n < int64(blockSize) {
			return leaves, nil
		}
	}
}
