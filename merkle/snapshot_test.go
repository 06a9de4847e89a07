package merkle

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-merklediff/codec"
	"github.com/spacemeshos/go-merklediff/hash"
)

func TestSnapshotRoundTrip(t *testing.T) {
	for _, alg := range hash.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			h := hash.MustNew(alg)
			data := bytes.Repeat([]byte("merkle"), 1000)
			tree, err := NewSubTree(bytes.NewReader(data), h, 512, 1<<20)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, WriteSnapshot(&buf, tree))

			s, err := ReadSnapshot(&buf)
			require.NoError(t, err)
			if diff := cmp.Diff(tree.Snapshot(), s); diff != "" {
				t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, alg, s.Algorithm)
			require.EqualValues(t, 512, s.BlockSize)
			require.EqualValues(t, 1<<20, s.Base)
			require.EqualValues(t, len(data), s.Size)
			require.NoError(t, s.Verify(alg, 512))

			loaded, err := s.Tree()
			require.NoError(t, err)
			require.True(t, tree.Equal(loaded))
			require.Equal(t, tree.Size(), loaded.Size())
		})
	}
}

func TestSnapshotVerify(t *testing.T) {
	s := buildTree(t, []byte("abcdefgh"), 4).Snapshot()
	require.NoError(t, s.Verify(hash.SHA256, 4))
	require.ErrorIs(t, s.Verify(hash.Blake3, 4), ErrSnapshotMismatch)
	require.ErrorIs(t, s.Verify(hash.SHA256, 8), ErrSnapshotMismatch)
}

func TestSnapshotCorrupted(t *testing.T) {
	s := buildTree(t, []byte("abcdefgh"), 4).Snapshot()
	s.Size = 100
	_, err := s.Tree()
	require.Error(t, err)

	s = buildTree(t, []byte("abcdefgh"), 4).Snapshot()
	s.Algorithm = "md5"
	_, err = s.Tree()
	require.Error(t, err)

	buf, err := codec.Encode(buildTree(t, []byte("abcdefgh"), 4).Snapshot())
	require.NoError(t, err)
	var decoded Snapshot
	require.Error(t, codec.Decode(buf[:len(buf)-1], &decoded))
}
