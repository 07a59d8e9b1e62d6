// Package config loads the engine's external configuration knobs (§6)
// from YAML with environment-variable overrides, the same layered
// approach the teacher's own node configuration uses.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/ametsuchi/internal/obs/log"
)

const envPrefix = "AMETSUCHI_"

// Config holds every knob §6 names plus the ambient logging/metrics
// settings the core is silent on but any real deployment needs.
type Config struct {
	DBPath              string `yaml:"db_path"`
	MaxDBSize           int64  `yaml:"max_db_size"`
	MerkleBlockCapacity int    `yaml:"merkle_block_capacity"`
	MerkleFanout        int    `yaml:"merkle_fanout"`
	MaxNamedMaps        int    `yaml:"max_named_maps"`
	MaxPeerTrust        float64 `yaml:"max_peer_trust"`

	LogLevel  log.Level `yaml:"log_level"`
	LogJSON   bool      `yaml:"log_json"`
	MetricsAddr string  `yaml:"metrics_addr"`
}

// Default returns the §6 defaults: 1 TiB max size, 1024-leaf Merkle
// blocks, fanout 16, peer trust clamped to [-1,1].
func Default() Config {
	return Config{
		DBPath:              "./data",
		MaxDBSize:           1 << 40,
		MerkleBlockCapacity: 1024,
		MerkleFanout:        16,
		MaxNamedMaps:        32,
		MaxPeerTrust:        1.0,
		LogLevel:            log.InfoLevel,
		LogJSON:             false,
		MetricsAddr:         ":9090",
	}
}

// Load reads path (if non-empty and present) over the defaults, then
// applies AMETSUCHI_-prefixed environment overrides, then validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv(envPrefix + "DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := lookupInt64(envPrefix + "MAX_DB_SIZE"); ok {
		cfg.MaxDBSize = v
	}
	if v, ok := lookupInt(envPrefix + "MERKLE_BLOCK_CAPACITY"); ok {
		cfg.MerkleBlockCapacity = v
	}
	if v, ok := lookupInt(envPrefix + "MERKLE_FANOUT"); ok {
		cfg.MerkleFanout = v
	}
	if v, ok := lookupInt(envPrefix + "MAX_NAMED_MAPS"); ok {
		cfg.MaxNamedMaps = v
	}
	if v, ok := lookupFloat(envPrefix + "MAX_PEER_TRUST"); ok {
		cfg.MaxPeerTrust = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = log.Level(v)
	}
	if v, ok := lookupBool(envPrefix + "LOG_JSON"); ok {
		cfg.LogJSON = v
	}
	if v, ok := os.LookupEnv(envPrefix + "METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
}

func lookupInt64(key string) (int64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func lookupFloat(key string) (float64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	return n, err == nil
}

func lookupBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

// Validate enforces §6's constraints that can be checked without
// opening the environment (page-size alignment is deferred to the
// substrate, which rejects a misaligned size at Open).
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if c.MaxDBSize <= 0 {
		return fmt.Errorf("config: max_db_size must be positive")
	}
	if c.MerkleBlockCapacity <= 0 {
		return fmt.Errorf("config: merkle_block_capacity must be positive")
	}
	if c.MerkleFanout < 2 {
		return fmt.Errorf("config: merkle_fanout must be at least 2")
	}
	if c.MaxNamedMaps <= 0 {
		return fmt.Errorf("config: max_named_maps must be positive")
	}
	if c.MaxPeerTrust <= 0 {
		return fmt.Errorf("config: max_peer_trust must be positive")
	}
	return nil
}
