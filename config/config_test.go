package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-merklediff/hash"
	"github.com/spacemeshos/go-merklediff/merkle"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"), viper.New())
	require.ErrorContains(t, err, "failed to read config file")
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, "merklediff.json", `{
		"client": "10.0.0.1:7513",
		"block-size": 65536,
		"refine": [4096, 1],
		"hash": "blake3",
		"timeout": "45s",
		"log-encoder": "json"
	}`)
	vip := viper.New()
	require.NoError(t, LoadConfig(path, vip))

	cfg := DefaultConfig()
	require.NoError(t, Load(vip, &cfg))
	require.Equal(t, "10.0.0.1:7513", cfg.Client)
	require.Equal(t, 65536, cfg.BlockSize)
	require.Equal(t, []int{4096, 1}, cfg.Refine)
	require.Equal(t, hash.Blake3, cfg.Hash)
	require.Equal(t, 45*time.Second, cfg.Timeout)
	require.Equal(t, "json", cfg.LogEncoder)
	require.Equal(t, "warn", cfg.LogLevel)
	require.NoError(t, cfg.Validate())

	mode, err := cfg.Mode()
	require.NoError(t, err)
	require.Equal(t, ModeClient, mode)
}

func TestLoadConfigRefineString(t *testing.T) {
	path := writeConfig(t, "merklediff.yaml", "refine: 4096, 64 ,1\nhash: XXHASH\n")
	vip := viper.New()
	require.NoError(t, LoadConfig(path, vip))
	cfg := DefaultConfig()
	require.NoError(t, Load(vip, &cfg))
	require.Equal(t, []int{4096, 64, 1}, cfg.Refine)
	require.Equal(t, hash.XXHash, cfg.Hash)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "merklediff.json", `{"blocksize": 12}`)
	vip := viper.New()
	require.NoError(t, LoadConfig(path, vip))
	cfg := DefaultConfig()
	require.ErrorContains(t, Load(vip, &cfg), "blocksize")
}

func TestLoadConfigBadHash(t *testing.T) {
	path := writeConfig(t, "merklediff.json", `{"hash": "md5"}`)
	vip := viper.New()
	require.NoError(t, LoadConfig(path, vip))
	cfg := DefaultConfig()
	require.Error(t, Load(vip, &cfg))
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "merklediff.json", `{"block-size": 65536, "server": ":7513"}`)
	vip := viper.New()
	require.NoError(t, LoadConfig(path, vip))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("block-size", DefaultBlockSize, "")
	fs.String("server", "", "")
	fs.Duration("timeout", 0, "")
	require.NoError(t, fs.Parse([]string{"--block-size=4096", "--timeout=3s"}))
	require.NoError(t, vip.BindPFlags(fs))

	cfg := DefaultConfig()
	require.NoError(t, Load(vip, &cfg))
	require.Equal(t, 4096, cfg.BlockSize)
	require.Equal(t, ":7513", cfg.Server)
	require.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{name: "default", modify: func(*Config) {}},
		{name: "zero block size", modify: func(c *Config) { c.BlockSize = 0 }},
		{name: "unknown hash", modify: func(c *Config) { c.Hash = "md5" }},
		{
			name:   "refine not decreasing",
			modify: func(c *Config) { c.Refine = []int{1, 4096} },
			err:    merkle.ErrBlockSize,
		},
		{
			name:   "refine above block size",
			modify: func(c *Config) { c.Refine = []int{DefaultBlockSize} },
			err:    merkle.ErrBlockSize,
		},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -time.Second }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := cfg.Validate()
			switch {
			case tc.name == "default":
				require.NoError(t, err)
			case tc.err != nil:
				require.ErrorIs(t, err, tc.err)
			default:
				require.Error(t, err)
			}
		})
	}
}

func TestMode(t *testing.T) {
	for _, tc := range []struct {
		cfg  Config
		mode Mode
	}{
		{cfg: Config{Server: ":1"}, mode: ModeServer},
		{cfg: Config{Client: "h:1"}, mode: ModeClient},
		{cfg: Config{Interactive: true}, mode: ModeInteractive},
		{cfg: Config{DryRun: true}, mode: ModeDryRun},
	} {
		mode, err := tc.cfg.Mode()
		require.NoError(t, err)
		require.Equal(t, tc.mode, mode)
	}
	for _, cfg := range []Config{{}, {Server: ":1", Client: "h:1"}, {DryRun: true, Interactive: true}} {
		_, err := cfg.Mode()
		require.ErrorIs(t, err, ErrMode)
	}
	require.Equal(t, "dry-run", ModeDryRun.String())
}

func TestLogLevelName(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "warn", cfg.LogLevelName())
	cfg.Verbose = true
	require.Equal(t, "debug", cfg.LogLevelName())
}
