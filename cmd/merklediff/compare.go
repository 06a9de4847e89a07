package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-merklediff/config"
	"github.com/spacemeshos/go-merklediff/diff"
	"github.com/spacemeshos/go-merklediff/hash"
	"github.com/spacemeshos/go-merklediff/merkle"
	"github.com/spacemeshos/go-merklediff/metrics"
	"github.com/spacemeshos/go-merklediff/transport"
)

const lockRetryDelay = 100 * time.Millisecond

func transportOpts(cfg *config.Config, logger *zap.Logger) []transport.Opt {
	p2pLevel := zapcore.WarnLevel
	if cfg.Verbose {
		p2pLevel = zapcore.InfoLevel
	}
	return []transport.Opt{
		transport.WithLogger(logger.Named("transport")),
		transport.WithTimeout(cfg.Timeout),
		transport.WithDialTimeout(cfg.DialTimeout),
		transport.WithP2PLogLevel(p2pLevel),
	}
}

// connect establishes the connection to the peer for the server and client modes.
func connect(ctx context.Context, cfg *config.Config, mode config.Mode, logger *zap.Logger) (*transport.Conn, error) {
	opts := transportOpts(cfg, logger)
	switch {
	case mode == config.ModeServer && cfg.P2P:
		l, err := transport.ListenP2P(cfg.Server, opts...)
		if err != nil {
			return nil, err
		}
		conn, err := l.Accept(ctx)
		if err != nil {
			return nil, errors.Join(err, l.Close())
		}
		return conn, nil
	case mode == config.ModeServer:
		l, err := transport.Listen(ctx, cfg.Server, opts...)
		if err != nil {
			return nil, err
		}
		defer l.Close()
		return l.Accept(ctx)
	case mode == config.ModeClient && cfg.P2P:
		return transport.DialP2P(ctx, cfg.Client, opts...)
	case mode == config.ModeClient:
		return transport.Dial(ctx, cfg.Client, opts...)
	default:
		panic(fmt.Sprintf("BUG: no connection for mode %s", mode))
	}
}

// lock takes a shared advisory lock on the file. Advisory locks exist only on the OS
// file system.
func (a *app) lock(ctx context.Context, path string) (func(), error) {
	if _, ok := a.fs.(*afero.OsFs); !ok {
		return nil, fmt.Errorf("lock %s: not supported on file system %s", path, a.fs.Name())
	}
	fl := flock.New(path)
	locked, err := fl.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", path)
	}
	return func() { _ = fl.Unlock() }, nil
}

// buildTree builds the top-level tree of the file, or loads it from a snapshot.
func (a *app) buildTree(cfg *config.Config, logger *zap.Logger, f afero.File) (*merkle.Tree, error) {
	if cfg.Tree != "" {
		return a.loadTree(cfg, f)
	}
	h, err := hash.New(cfg.Hash)
	if err != nil {
		return nil, err
	}
	logger.Info("building tree",
		zap.Int("block_size", cfg.BlockSize),
		zap.Stringer("hash", cfg.Hash))
	tree, err := merkle.NewTree(f, h, cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("build tree of %s: %w", f.Name(), err)
	}
	logger.Info("tree built", zap.Int("nodes", tree.Len()), zap.Int("leaves", tree.Leaves()))
	return tree, nil
}

func (a *app) loadTree(cfg *config.Config, f afero.File) (*merkle.Tree, error) {
	data, err := afero.ReadFile(a.fs, cfg.Tree)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	snap, err := merkle.ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := snap.Verify(cfg.Hash, cfg.BlockSize); err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", merkle.ErrStream, f.Name(), err)
	}
	if uint64(info.Size()) != snap.Size {
		return nil, fmt.Errorf("%w: tree %s covers %d bytes, %s has %d",
			merkle.ErrSnapshotMismatch, cfg.Tree, snap.Size, f.Name(), info.Size())
	}
	return snap.Tree()
}

// compare runs a comparison session for the file and prints the differences.
func (a *app) compare(ctx context.Context, cfg *config.Config, mode config.Mode, logger *zap.Logger, path string) error {
	if cfg.MetricsAddr != "" {
		srv, err := metrics.StartServer(ctx, cfg.MetricsAddr, logger.Named("metrics"))
		if err != nil {
			return err
		}
		defer srv.Close()
	}
	logger.Info("comparing", zap.String("file", path), zap.Stringer("mode", mode))
	f, err := a.fs.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", merkle.ErrStream, err)
	}
	defer f.Close()
	// opened first so that locking never creates a missing file
	if cfg.Lock {
		unlock, err := a.lock(ctx, path)
		if err != nil {
			return err
		}
		defer unlock()
	}
	tree, err := a.buildTree(cfg, logger, f)
	if err != nil {
		return err
	}

	var asker diff.Asker
	switch mode {
	case config.ModeInteractive:
		asker = transport.NewInteractiveAsker(a.stdin, a.stderr)
	case config.ModeDryRun:
		asker = transport.EchoAsker{}
	default:
		conn, err := connect(ctx, cfg, mode, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		asker = conn.Asker(tree.Hasher().Size())
	}

	report, err := a.runSession(ctx, cfg, logger, asker, tree, f)
	if cfg.MetricsPush != "" {
		if perr := metrics.Push(ctx, logger, cfg.MetricsPush, "merklediff",
			map[string]string{"mode": mode.String()}); perr != nil {
			logger.Warn("failed to push metrics", zap.Error(perr))
		}
	}
	if err != nil {
		return err
	}
	return a.report(cfg, report)
}

func (a *app) runSession(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	asker diff.Asker,
	tree *merkle.Tree,
	rs io.ReadSeeker,
) (*diff.Report, error) {
	opts := []diff.Opt{
		diff.WithRefinement(cfg.Refine...),
		diff.WithLogger(logger.Named("diff")),
		diff.WithTracer(diff.NewMetricsTracer()),
	}
	if cfg.AskLeafRoot {
		opts = append(opts, diff.WithLeafRootQuestion())
	}
	session := diff.NewSession(asker, opts...)
	report, err := session.Run(ctx, tree, rs)
	if report != nil {
		logger.Info("made exchanges", zap.Int("exchanges", report.Exchanges))
	}
	if err != nil {
		return nil, fmt.Errorf("comparison incomplete: %w", err)
	}
	return report, nil
}

// report prints the differences and turns them into the command outcome.
func (a *app) report(cfg *config.Config, report *diff.Report) error {
	var buf bytes.Buffer
	if err := writeLocations(&buf, report.Locations()); err != nil {
		return err
	}
	if _, err := a.stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write differences: %w", err)
	}
	if cfg.Output != "" {
		if err := a.writeFile(cfg.Output, &buf); err != nil {
			return fmt.Errorf("write %s: %w", cfg.Output, err)
		}
	}
	if report.Identical() {
		return nil
	}
	return errDifferent
}

// writeFile replaces the file at path with the content of r, atomically on the OS file
// system and through a renamed temporary file elsewhere.
func (a *app) writeFile(path string, r io.Reader) error {
	if _, ok := a.fs.(*afero.OsFs); ok {
		return atomic.WriteFile(path, r)
	}
	tmp, err := afero.TempFile(a.fs, filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		return errors.Join(err, tmp.Close(), a.fs.Remove(tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(err, a.fs.Remove(tmp.Name()))
	}
	return a.fs.Rename(tmp.Name(), path)
}
