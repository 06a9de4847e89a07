package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const (
	pushRetries      = 3
	pushRetryWaitMin = 500 * time.Millisecond
	pushRetryWaitMax = 5 * time.Second
)

type retryableHttpLogger struct {
	inner *zap.Logger
}

func (r retryableHttpLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHttpLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHttpLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHttpLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

func newPushClient(logger *zap.Logger, retries int, waitMin, waitMax time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = waitMin
	client.RetryWaitMax = waitMax
	client.Logger = &retryableHttpLogger{logger}
	return client
}

// Push sends the content of the default registry to a prometheus push gateway.
// A comparison is a batch job, so its counters are pushed once when it completes.
// Failed pushes are retried with backoff.
func Push(ctx context.Context, logger *zap.Logger, url, job string, grouping map[string]string) error {
	return pushTo(ctx, newPushClient(logger, pushRetries, pushRetryWaitMin, pushRetryWaitMax), url, job, grouping)
}

func pushTo(
	ctx context.Context,
	client *retryablehttp.Client,
	url, job string,
	grouping map[string]string,
) error {
	pusher := push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		Client(client.StandardClient())
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
