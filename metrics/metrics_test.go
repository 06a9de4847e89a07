package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testCounter = NewCounter("test_total", "metrics", "counter used by tests", []string{"kind"})

func TestStartServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := StartServer(ctx, "127.0.0.1:0", zaptest.NewLogger(t))
	require.NoError(t, err)
	testCounter.WithLabelValues("served").Inc()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)
	family, ok := families["merklediff_metrics_test_total"]
	require.True(t, ok)
	var found bool
	for _, m := range family.GetMetric() {
		for _, label := range m.GetLabel() {
			if label.GetName() == "kind" && label.GetValue() == "served" {
				found = true
				require.GreaterOrEqual(t, m.GetCounter().GetValue(), 1.0)
			}
		}
	}
	require.True(t, found)

	require.NoError(t, srv.Close())
	_, err = http.Get(fmt.Sprintf("http://%s/metrics", srv.Addr()))
	require.Error(t, err)
}

func TestServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := StartServer(ctx, "127.0.0.1:0", zaptest.NewLogger(t))
	require.NoError(t, err)
	cancel()
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", srv.Addr()))
		if err == nil {
			resp.Body.Close()
		}
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPush(t *testing.T) {
	testCounter.WithLabelValues("pushed").Inc()
	var (
		method, path string
		body         []byte
	)
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	err := Push(context.Background(), zaptest.NewLogger(t), gw.URL, "merklediff", map[string]string{"role": "client"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, method)
	require.True(t, strings.HasPrefix(path, "/metrics/job/merklediff"), path)
	require.Contains(t, path, "/role/client")
	require.NotEmpty(t, body)
}

func TestPushRetries(t *testing.T) {
	var attempts atomic.Int32
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	client := newPushClient(zaptest.NewLogger(t), 3, time.Millisecond, 5*time.Millisecond)
	require.NoError(t, pushTo(context.Background(), client, gw.URL, "merklediff", nil))
	require.EqualValues(t, 3, attempts.Load())
}

func TestPushFailure(t *testing.T) {
	var attempts atomic.Int32
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gw.Close()

	client := newPushClient(zaptest.NewLogger(t), 2, time.Millisecond, 5*time.Millisecond)
	require.Error(t, pushTo(context.Background(), client, gw.URL, "merklediff", nil))
	require.EqualValues(t, 3, attempts.Load())
}
