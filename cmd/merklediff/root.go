package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-merklediff/config"
	"github.com/spacemeshos/go-merklediff/hash"
	"github.com/spacemeshos/go-merklediff/log"
)

// app holds what the commands share with the process.
type app struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// commandFlagAnnotation marks flags of a single command that are not part of config.Config.
const commandFlagAnnotation = "merklediff/command-flag"

func markCommandFlag(fs *pflag.FlagSet, name string) {
	if err := fs.SetAnnotation(name, commandFlagAnnotation, []string{"true"}); err != nil {
		panic(fmt.Sprintf("BUG: annotate flag %s: %v", name, err))
	}
}

func (a *app) rootCmd() *cobra.Command {
	defaults := config.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "merklediff [flags] FILE",
		Short: "find the byte ranges that differ between two copies of a file",
		Long: `merklediff compares FILE with the copy held by a peer without transferring either
file. Both sides build a hash tree over fixed-size blocks and exchange digests top-down,
descending only into subtrees that differ.

Exit status is 0 if the files are identical, 1 if they differ and 2 on error.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			mode, err := cfg.Mode()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return a.compare(cmd.Context(), cfg, mode, logger, args[0])
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "load configuration from the file (json, yaml or toml)")
	pf.IntP("block-size", "b", defaults.BlockSize, "leaf block size in bytes")
	pf.IntSlice("refine", nil, "finer block sizes to narrow mismatched blocks down, e.g. 4096,1")
	pf.String("hash", defaults.Hash.String(), "digest algorithm: "+algorithmList())
	pf.Bool("ask-leaf-root", false, "also compare files of a single block (the peer must set it too)")
	pf.Duration("timeout", defaults.Timeout, "fail if the peer is idle for that long (0 disables)")
	pf.Duration("dial-timeout", defaults.DialTimeout, "connection setup timeout")
	pf.StringP("output", "o", "", "also write the differences to the file")
	pf.String("metrics-addr", "", "serve prometheus metrics on the address while running")
	pf.String("metrics-push", "", "push metrics to the prometheus push gateway when done")
	pf.BoolP("verbose", "v", false, "print progress and diagnostic counters")
	pf.String("log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	pf.String("log-encoder", defaults.LogEncoder, "log encoder: console or json")

	f := cmd.Flags()
	f.StringP("server", "s", "", "listen on the address and wait for the peer")
	f.StringP("client", "c", "", "connect to the peer listening on the address")
	f.Bool("interactive", false, "answer the questions on the terminal")
	f.Bool("dry-run", false, "compare the file with itself without a peer")
	f.Bool("p2p", false, "use libp2p: --server takes a listen multiaddr, --client a /p2p/ multiaddr")
	f.Bool("lock", false, "hold a shared lock on FILE while comparing")
	f.String("tree", "", "reuse the tree saved by 'merklediff tree --save'")

	cmd.AddCommand(a.localCmd(), a.treeCmd())
	return cmd
}

func algorithmList() string {
	names := make([]string, 0, len(hash.Algorithms()))
	for _, alg := range hash.Algorithms() {
		names = append(names, alg.String())
	}
	return strings.Join(names, ", ")
}

// loadConfig merges the defaults, the config file and the flags set on the command
// line, in increasing order of precedence.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	vip := viper.New()
	vip.SetFs(a.fs)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := config.LoadConfig(path, vip); err != nil {
			return nil, err
		}
	}
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Annotations[commandFlagAnnotation] != nil {
			return
		}
		err = errors.Join(err, vip.BindPFlag(f.Name, f))
	})
	if err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	cfg := config.DefaultConfig()
	if err := config.Load(vip, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return log.New("merklediff", cfg.LogLevelName(), cfg.LogEncoder)
}

func writeLocations(w io.Writer, locs []uint64) error {
	var sb strings.Builder
	for _, loc := range locs {
		sb.WriteString(strconv.FormatUint(loc, 10))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
