package transport

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultDialTimeout bounds connection setup when no dial timeout is given.
	DefaultDialTimeout = 30 * time.Second
	defaultChunkSize   = 64 * 1024
)

type options struct {
	logger      *zap.Logger
	clock       clockwork.Clock
	timeout     time.Duration
	dialTimeout time.Duration
	name        string
	p2pLogLevel *zapcore.Level
}

func defaultOptions() options {
	return options{
		logger:      zap.NewNop(),
		clock:       clockwork.NewRealClock(),
		dialTimeout: DefaultDialTimeout,
		name:        "tcp",
	}
}

func applyOptions(opts []Opt) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Opt configures connections and askers.
type Opt func(*options)

// WithLogger specifies the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock specifies the clock used for deadlines and latency measurements.
func WithClock(clock clockwork.Clock) Opt {
	return func(o *options) {
		o.clock = clock
	}
}

// WithTimeout specifies the idle timeout of a connection. A peer that neither sends nor
// accepts data for that long fails the session. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithDialTimeout specifies how long to wait for a connection to be established.
func WithDialTimeout(timeout time.Duration) Opt {
	return func(o *options) {
		if timeout > 0 {
			o.dialTimeout = timeout
		}
	}
}

// WithP2PLogLevel routes the logs of the libp2p host to the logger, at the given level.
// libp2p loggers are process wide, so the last host started wins.
func WithP2PLogLevel(level zapcore.Level) Opt {
	return func(o *options) {
		o.p2pLogLevel = &level
	}
}
