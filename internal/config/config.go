// Package config holds the mining core's configuration: which
// algorithm to run, how many solvers to start, and where to find the
// stratum server and (for Cuckoo) native plugins.
//
// Mirrors the teacher's package-level-defaults-overridden-by-flags
// layout (see core/config/config.go in the reference pack) plus a TOML
// file for the structured bits a flag can't express cleanly (per-GPU
// and per-plugin configs), the way the original Rust MinerConfig was
// TOML-sourced.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Algorithm selects which back-end Miner the Controller drives.
type Algorithm string

const (
	AlgorithmRandomX Algorithm = "randomx"
	AlgorithmProgPow Algorithm = "progpow"
	AlgorithmCuckoo  Algorithm = "cuckoo"
)

// GPUConfig configures one ProgPow solver instance.
type GPUConfig struct {
	DeviceID int    `toml:"device_id"`
	Driver   string `toml:"driver"`
}

// PluginConfig configures one Cuckoo native solver plugin. Parameters
// are validated against the recognized key set in
// internal/compute/cuckoo.ResolveParam; unrecognized keys are warned
// about and ignored rather than rejected outright.
type PluginConfig struct {
	PluginName string            `toml:"plugin_name"`
	Parameters map[string]uint32 `toml:"parameters"`
}

// Config is the fully-resolved configuration the Controller and the
// chosen back-end Miner are built from.
type Config struct {
	Algorithm Algorithm `toml:"algorithm"`

	// StratumServerAddr is the upstream job source address. It is not
	// passed to internal/stratumclient, which only listens on
	// StratumListenPort and never dials this address.
	StratumServerAddr       string `toml:"stratum_server_addr"`
	StratumServerLogin      string `toml:"stratum_server_login"`
	StratumServerPassword   string `toml:"stratum_server_password"`
	StratumServerTLSEnabled bool   `toml:"stratum_server_tls_enabled"`

	// StratumListenPort is the local libp2p listen port the stratum
	// client node binds to (internal/stratumclient).
	StratumListenPort int `toml:"stratum_listen_port"`

	// RandomXThreads is the number of CPU solver workers to start.
	RandomXThreads int `toml:"randomx_threads"`

	// GPUs configures one ProgPow worker per entry.
	GPUs []GPUConfig `toml:"gpu"`

	// MinerPluginDir resolves Cuckoo plugin shared objects; empty
	// means "plugins" next to the running executable, mirroring the
	// plugin-dir resolution in the reference cuckoo-miner config
	// reader.
	MinerPluginDir string `toml:"miner_plugin_dir"`

	// MinerPluginConfigs configures one Cuckoo solver per entry.
	MinerPluginConfigs []PluginConfig `toml:"plugin"`

	// DataDir holds the local bookkeeping store (internal/store).
	DataDir string `toml:"data_dir"`

	// StatOutputIntervalSec is how often the Controller logs aggregate
	// stats (§4.5 step 2; default 2s).
	StatOutputIntervalSec int64 `toml:"stat_output_interval_sec"`

	// MinerPrivateKeyHex is the miner's secp256k1 identity, used by
	// internal/solution to sign found-solution reports. Empty means
	// "generate an ephemeral key at startup" (no persistent identity).
	MinerPrivateKeyHex string `toml:"miner_private_key"`
}

// Default returns the zero-config defaults: RandomX on a single
// thread against a local stratum server, matching the conservative
// single-worker defaults the teacher's config package shipped for its
// own testnet profile.
func Default() Config {
	return Config{
		Algorithm:             AlgorithmRandomX,
		StratumServerAddr:     "127.0.0.1:13416",
		StratumListenPort:     4001,
		RandomXThreads:        1,
		DataDir:               "data",
		StatOutputIntervalSec: 2,
	}
}

// Load reads a TOML config file and applies it on top of Default(). A
// missing file is not an error: defaults (plus any flag overrides the
// caller applies afterward) stand on their own.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields the Controller and back-end Miners assume
// are sane before start_solvers is called.
func (c Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmRandomX, AlgorithmProgPow, AlgorithmCuckoo:
	default:
		return fmt.Errorf("config: unknown algorithm %q", c.Algorithm)
	}
	if c.Algorithm == AlgorithmRandomX && c.RandomXThreads <= 0 {
		return fmt.Errorf("config: randomx_threads must be > 0")
	}
	if c.Algorithm == AlgorithmProgPow && len(c.GPUs) == 0 {
		return fmt.Errorf("config: progpow requires at least one [[gpu]] entry")
	}
	if c.Algorithm == AlgorithmCuckoo && len(c.MinerPluginConfigs) == 0 {
		return fmt.Errorf("config: cuckoo requires at least one [[plugin]] entry")
	}
	if c.StatOutputIntervalSec <= 0 {
		return fmt.Errorf("config: stat_output_interval_sec must be > 0")
	}
	return nil
}
