package diff

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-merklediff/hash"
	"github.com/spacemeshos/go-merklediff/log/logtest"
	"github.com/spacemeshos/go-merklediff/merkle"
)

func runPair(t *testing.T, a, b []byte, blockSize int, levels ...int) (*Report, *Report) {
	t.Helper()
	askA, askB := askerPair()
	var repA, repB *Report
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		s := NewSession(askA, WithRefinement(levels...), WithLogger(logtest.New(t)))
		repA, err = s.Run(context.Background(), newTree(t, a, blockSize), bytes.NewReader(a))
		return err
	})
	eg.Go(func() error {
		var err error
		s := NewSession(askB, WithRefinement(levels...))
		repB, err = s.Run(context.Background(), newTree(t, b, blockSize), bytes.NewReader(b))
		return err
	})
	require.NoError(t, eg.Wait())
	require.Equal(t, repA.Exchanges, repB.Exchanges)
	return repA, repB
}

func TestSessionWithoutRefinement(t *testing.T) {
	data := make([]byte, 6*mib)
	a, b := runPair(t, data, flip(data, 5_000_000), mib)
	require.False(t, a.Identical())
	require.Equal(t, []int{4}, a.Blocks)
	require.Equal(t, []int{4}, b.Blocks)
	require.Equal(t, []uint64{4}, a.Locations())
	require.Equal(t, []uint64{4 * mib}, a.Offsets())
	require.Equal(t, merkle.NodeCount(6), a.Nodes)
}

func TestSessionRefinesToExactOffset(t *testing.T) {
	data := make([]byte, 6*mib)
	a, b := runPair(t, data, flip(data, 5_000_000), mib, 4096, 1)
	require.True(t, a.Refined)
	require.Equal(t, []int{4}, a.Blocks)
	require.Equal(t, []uint64{5_000_000}, a.Locations())
	require.Equal(t, []uint64{5_000_000}, b.Locations())
	require.Len(t, a.Mismatches, 1)
	require.EqualValues(t, 1, a.Mismatches[0].Size)
}

func TestSessionSingleLevelRefinement(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 256)
	a, _ := runPair(t, data, flip(data, 1500, 1501, 3000), 1024, 1)
	require.Equal(t, []int{1, 2}, a.Blocks)
	require.Equal(t, []uint64{1500, 1501, 3000}, a.Locations())
}

func TestSessionIdentical(t *testing.T) {
	data := make([]byte, 3*mib)
	a, _ := runPair(t, data, bytes.Clone(data), mib, 4096, 1)
	require.True(t, a.Identical())
	require.Empty(t, a.Locations())
	require.Equal(t, 2, a.Exchanges)
}

func TestSessionShortFinalBlock(t *testing.T) {
	data := bytes.Repeat([]byte("z"), 2500)
	a, _ := runPair(t, data, flip(data, 2499), 1000, 10, 1)
	require.Equal(t, []int{2}, a.Blocks)
	require.Equal(t, []uint64{2499}, a.Locations())
}

func TestSessionBlockSmallerThanLevel(t *testing.T) {
	// the final 500-byte block fits in one 600-byte block and is narrowed down by the
	// next level only
	data := bytes.Repeat([]byte("z"), 2500)
	a, b := runPair(t, data, flip(data, 2499), 1000, 600, 1)
	require.Equal(t, []int{2}, a.Blocks)
	require.Equal(t, []uint64{2499}, a.Locations())
	require.Equal(t, []uint64{2499}, b.Locations())

	single, _ := runPair(t, data, flip(data, 2499), 1000, 600)
	require.Equal(t, []uint64{2000}, single.Locations())
	require.EqualValues(t, 500, single.Mismatches[0].Size)
	// both children of the root and the lone child of the mismatched one; the refinement
	// level takes no exchange
	require.Equal(t, 3, single.Exchanges)
}

func TestSessionInvalidLevels(t *testing.T) {
	tree := newTree(t, []byte("abcdef"), 4)
	for _, levels := range [][]int{{4}, {8}, {2, 2}, {2, 3}, {0}, {-1}} {
		_, err := NewSession(&matchAll{}, WithRefinement(levels...)).Run(context.Background(), tree, bytes.NewReader(nil))
		require.ErrorIs(t, err, merkle.ErrBlockSize, "levels %v", levels)
	}
	require.NoError(t, ValidateLevels(4, []int{2, 1}))
	require.NoError(t, ValidateLevels(4, nil))
}

func TestSessionTracer(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := NewMockTracer(ctrl)
	tracer.EXPECT().OnExchange(0, gomock.Any(), true).Times(2)
	tracer.EXPECT().OnSessionDone(gomock.Any(), nil).Do(func(r *Report, _ error) {
		require.True(t, r.Identical())
	})
	_, err := NewSession(&matchAll{}, WithTracer(tracer)).
		Run(context.Background(), newTree(t, []byte("abc"), 1), nil)
	require.NoError(t, err)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestSessionMetricsTracer(t *testing.T) {
	matched := exchanges.WithLabelValues("0", "match")
	identical := sessions.WithLabelValues("identical")
	failed := sessions.WithLabelValues("failed")
	beforeMatched := counterValue(t, matched)
	beforeIdentical := counterValue(t, identical)
	beforeFailed := counterValue(t, failed)

	tracer := NewMetricsTracer()
	_, err := NewSession(&matchAll{}, WithTracer(tracer)).
		Run(context.Background(), newTree(t, []byte("abc"), 1), nil)
	require.NoError(t, err)
	require.Equal(t, beforeMatched+2, counterValue(t, matched))
	require.Equal(t, beforeIdentical+1, counterValue(t, identical))

	tracer.OnSessionDone(nil, errors.New("boom"))
	require.Equal(t, beforeFailed+1, counterValue(t, failed))
}

type failingSeeker struct{ io.ReadSeeker }

func (failingSeeker) Seek(int64, int) (int64, error) {
	return 0, errors.New("seek failed")
}

func TestRefineSeekError(t *testing.T) {
	tree := newTree(t, []byte("abcd"), 2)
	r := NewRefiner(New(&matchAll{}), hash.MustNew(hash.SHA256))
	_, _, err := r.Refine(context.Background(), failingSeeker{}, tree.Node(1), 1)
	require.ErrorIs(t, err, merkle.ErrStream)
}

func TestRefine(t *testing.T) {
	local := []byte("aaaabbbbccccdddd")
	peer := flip(local, 9)
	h := hash.MustNew(hash.SHA256)
	localTree := newTree(t, local, 4)
	peerTree := newTree(t, peer, 4)

	askA, askB := askerPair()
	var (
		leaves []merkle.Node
		res    Result
		eg     errgroup.Group
	)
	eg.Go(func() error {
		var err error
		res, leaves, err = NewRefiner(New(askA), h).
			Refine(context.Background(), bytes.NewReader(local), localTree.Node(2), 1)
		return err
	})
	eg.Go(func() error {
		_, _, err := NewRefiner(New(askB), h).
			Refine(context.Background(), bytes.NewReader(peer), peerTree.Node(2), 1)
		return err
	})
	require.NoError(t, eg.Wait())
	require.Len(t, leaves, 1)
	require.EqualValues(t, 9, leaves[0].Offset)
	require.Equal(t, []int{1}, res.Mismatches)
}
