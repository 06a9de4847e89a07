package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-merklediff/config"
	"github.com/spacemeshos/go-merklediff/diff"
	"github.com/spacemeshos/go-merklediff/merkle"
	"github.com/spacemeshos/go-merklediff/transport"
)

func (a *app) localCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "local FILE_A FILE_B",
		Short: "compare two local files over a loopback connection",
		Long: `local runs both peers of a comparison in one process, connected over a loopback
TCP connection, and prints the differences found by the first one.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()
			// each side hashes its own file
			cfg.Tree = ""
			report, err := a.local(cmd.Context(), cfg, logger, args[0], args[1])
			if err != nil {
				return err
			}
			return a.report(cfg, report)
		},
	}
}

func (a *app) local(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	pathA, pathB string,
) (*diff.Report, error) {
	opts := transportOpts(cfg, logger)
	l, err := transport.Listen(ctx, "127.0.0.1:0", opts...)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	var (
		reports [2]*diff.Report
		eg      errgroup.Group
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	side := func(i int, path string, connect func() (*transport.Conn, error)) error {
		err := a.side(ctx, cfg, logger.Named(fmt.Sprintf("peer%d", i)), path, connect, &reports[i])
		if err != nil {
			// unblock the other side
			cancel()
		}
		return err
	}
	eg.Go(func() error {
		return side(0, pathA, func() (*transport.Conn, error) { return l.Accept(ctx) })
	})
	eg.Go(func() error {
		return side(1, pathB, func() (*transport.Conn, error) {
			return transport.Dial(ctx, l.Addr().String(), opts...)
		})
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports[0], nil
}

func (a *app) side(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	path string,
	connect func() (*transport.Conn, error),
	report **diff.Report,
) error {
	f, err := a.fs.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", merkle.ErrStream, path, err)
	}
	defer f.Close()
	tree, err := a.buildTree(cfg, logger, f)
	if err != nil {
		return err
	}
	conn, err := connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	*report, err = a.runSession(ctx, cfg, logger, conn.Asker(tree.Hasher().Size()), tree, f)
	return err
}
