package merkle

import (
	"errors"
	"fmt"
	"io"

	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-merklediff/codec"
	"github.com/spacemeshos/go-merklediff/hash"
)

const maxAlgorithmName = 32

// ErrSnapshotMismatch is returned when a saved tree was built with a different algorithm
// or block size than the one requested.
var ErrSnapshotMismatch = errors.New("snapshot does not match configuration")

// Snapshot is the persisted form of a tree. Only the leaves are stored, the inner nodes
// are rebuilt on load.
type Snapshot struct {
	Algorithm hash.Algorithm
	BlockSize uint64
	Base      uint64
	Size      uint64
	Leaves    [][]byte
}

var (
	_ scale.Encodable = (*Snapshot)(nil)
	_ scale.Decodable = (*Snapshot)(nil)
)

// Snapshot returns the persisted form of the tree.
func (t *Tree) Snapshot() *Snapshot {
	s := &Snapshot{
		Algorithm: t.hasher.Algorithm(),
		BlockSize: uint64(t.blockSize),
		Base:      t.Base(),
		Size:      t.Size(),
		Leaves:    make([][]byte, t.leaves),
	}
	for i := range s.Leaves {
		s.Leaves[i] = t.nodes[i].Hash
	}
	return s
}

// Tree rebuilds the tree from the snapshot.
func (s *Snapshot) Tree() (*Tree, error) {
	h, err := hash.New(s.Algorithm)
	if err != nil {
		return nil, err
	}
	if s.BlockSize == 0 {
		return nil, fmt.Errorf("%w: 0", ErrBlockSize)
	}
	if want := (s.Size + s.BlockSize - 1) / s.BlockSize; want != uint64(len(s.Leaves)) {
		return nil, fmt.Errorf("corrupted snapshot: %d leaves for %d bytes at block size %d",
			len(s.Leaves), s.Size, s.BlockSize)
	}
	leaves := make([]Node, len(s.Leaves))
	remaining := s.Size
	for i, digest := range s.Leaves {
		size := min(s.BlockSize, remaining)
		leaves[i] = Node{
			Index:  i,
			Hash:   digest,
			Offset: s.Base + uint64(i)*s.BlockSize,
			Size:   size,
		}
		remaining -= size
	}
	return Build(leaves, h, int(s.BlockSize))
}

// Verify checks that the snapshot was built with the given algorithm and block size.
func (s *Snapshot) Verify(alg hash.Algorithm, blockSize int) error {
	if s.Algorithm != alg {
		return fmt.Errorf("%w: hash %s, expected %s", ErrSnapshotMismatch, s.Algorithm, alg)
	}
	if s.BlockSize != uint64(blockSize) {
		return fmt.Errorf("%w: block size %d, expected %d", ErrSnapshotMismatch, s.BlockSize, blockSize)
	}
	return nil
}

// EncodeScale implements scale.Encodable.
func (s *Snapshot) EncodeScale(enc *scale.Encoder) (int, error) {
	var total int
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, []byte(s.Algorithm), maxAlgorithmName)
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, v := range []uint64{s.BlockSize, s.Base, s.Size, uint64(len(s.Leaves))} {
		n, err := scale.EncodeCompact64(enc, v)
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, digest := range s.Leaves {
		n, err := scale.EncodeByteArray(enc, digest)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale.Decodable.
func (s *Snapshot) DecodeScale(dec *scale.Decoder) (int, error) {
	var total int
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, maxAlgorithmName)
		if err != nil {
			return total, err
		}
		total += n
		s.Algorithm = hash.Algorithm(field)
	}
	h, err := hash.New(s.Algorithm)
	if err != nil {
		return total, err
	}
	var count uint64
	for _, v := range []*uint64{&s.BlockSize, &s.Base, &s.Size, &count} {
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		*v = field
	}
	s.Leaves = s.Leaves[:0]
	for range count {
		digest := make([]byte, h.Size())
		n, err := scale.DecodeByteArray(dec, digest)
		if err != nil {
			return total, err
		}
		total += n
		s.Leaves = append(s.Leaves, digest)
	}
	return total, nil
}

// WriteSnapshot writes the tree snapshot to w.
func WriteSnapshot(w io.Writer, t *Tree) error {
	if _, err := codec.EncodeTo(w, t.Snapshot()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if _, err := codec.DecodeFrom(r, &s); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return &s, nil
}
