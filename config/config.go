// Package config contains the merklediff configuration and its loading from files
// and command line flags.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-merklediff/diff"
	"github.com/spacemeshos/go-merklediff/hash"
	"github.com/spacemeshos/go-merklediff/log"
	"github.com/spacemeshos/go-merklediff/transport"
)

// DefaultBlockSize is the leaf block size of the top-level tree.
const DefaultBlockSize = 1 << 20

// Mode is the role this process plays in a comparison.
type Mode int

const (
	// ModeServer waits for the peer to connect.
	ModeServer Mode = iota + 1
	// ModeClient connects to a waiting peer.
	ModeClient
	// ModeInteractive reads the answers from the terminal.
	ModeInteractive
	// ModeDryRun compares the file with itself.
	ModeDryRun
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeClient:
		return "client"
	case ModeInteractive:
		return "interactive"
	case ModeDryRun:
		return "dry-run"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ErrMode is returned when none or more than one mode is configured.
var ErrMode = errors.New("exactly one of --server, --client, --interactive or --dry-run is required")

// Config defines the top level configuration of merklediff.
type Config struct {
	ConfigFile string `mapstructure:"config"`

	Server      string `mapstructure:"server"`
	Client      string `mapstructure:"client"`
	Interactive bool   `mapstructure:"interactive"`
	DryRun      bool   `mapstructure:"dry-run"`
	P2P         bool   `mapstructure:"p2p"`

	BlockSize int            `mapstructure:"block-size"`
	Refine    []int          `mapstructure:"refine"`
	Hash      hash.Algorithm `mapstructure:"hash"`
	// AskLeafRoot asks about the root of a single-block tree. Both peers must agree.
	AskLeafRoot bool `mapstructure:"ask-leaf-root"`
	// Tree is a snapshot of the top-level tree saved by the tree command.
	Tree string `mapstructure:"tree"`

	Timeout     time.Duration `mapstructure:"timeout"`
	DialTimeout time.Duration `mapstructure:"dial-timeout"`

	Output string `mapstructure:"output"`
	Lock   bool   `mapstructure:"lock"`

	MetricsAddr string `mapstructure:"metrics-addr"`
	MetricsPush string `mapstructure:"metrics-push"`

	Verbose    bool   `mapstructure:"verbose"`
	LogLevel   string `mapstructure:"log-level"`
	LogEncoder string `mapstructure:"log-encoder"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BlockSize:   DefaultBlockSize,
		Hash:        hash.SHA256,
		DialTimeout: transport.DefaultDialTimeout,
		LogLevel:    "warn",
		LogEncoder:  log.ConsoleEncoder,
	}
}

// Validate checks the comparison parameters. Both peers must use the same ones.
func (cfg *Config) Validate() error {
	if cfg.BlockSize <= 0 {
		return fmt.Errorf("invalid block size %d", cfg.BlockSize)
	}
	if _, err := hash.New(cfg.Hash); err != nil {
		return err
	}
	if err := diff.ValidateLevels(cfg.BlockSize, cfg.Refine); err != nil {
		return err
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("invalid timeout %v", cfg.Timeout)
	}
	return nil
}

// Mode returns the configured role.
func (cfg *Config) Mode() (Mode, error) {
	var modes []Mode
	if cfg.Server != "" {
		modes = append(modes, ModeServer)
	}
	if cfg.Client != "" {
		modes = append(modes, ModeClient)
	}
	if cfg.Interactive {
		modes = append(modes, ModeInteractive)
	}
	if cfg.DryRun {
		modes = append(modes, ModeDryRun)
	}
	if len(modes) != 1 {
		return 0, ErrMode
	}
	return modes[0], nil
}

// LogLevelName returns the effective log level: verbose mode forces debug.
func (cfg *Config) LogLevelName() string {
	if cfg.Verbose {
		return "debug"
	}
	return cfg.LogLevel
}

// LoadConfig reads the config file into vip. The format is derived from the extension.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", fileLocation, err)
	}
	return nil
}

// Load decodes the settings of vip, i.e. values from the config file overridden by
// the flags bound to it, into cfg. Unknown keys are rejected.
func Load(vip *viper.Viper, cfg *Config) error {
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		intSliceHookFunc(","),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithZeroFields(),
		WithIgnoreUntagged(),
		WithErrorUnused(),
	}
	if err := vip.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// intSliceHookFunc decodes "4096,1" or "[4096,1]" into []int.
func intSliceHookFunc(sep string) mapstructure.DecodeHookFuncType {
	return func(f, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf([]int{}) {
			return data, nil
		}
		raw := strings.Trim(strings.TrimSpace(data.(string)), "[]")
		if raw == "" {
			return []int{}, nil
		}
		var out []int
		for _, field := range strings.Split(raw, sep) {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("parse %q as integer list: %w", raw, err)
			}
			out = append(out, v)
		}
		return out, nil
	}
}

func WithZeroFields() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ZeroFields = true
	}
}

func WithIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}
