package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	MetricsPath string `toml:"MetricsPath"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`

	Log        Log        `toml:"Log"`
	RateLimit  RateLimit  `toml:"RateLimit"`
	Pauses     Pauses     `toml:"Pauses"`
	Platform   Platform   `toml:"Platform"`
	Staking    Staking    `toml:"Staking"`
	Governance Governance `toml:"Governance"`
	Genesis    Genesis    `toml:"Genesis"`
}

// Load reads the configuration from the given path, writing and returning a
// default file when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.MetricsPath) == "" {
		cfg.MetricsPath = "/metrics"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./acdm-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "acdm-local"
	}
	if cfg.Log == (Log{}) {
		cfg.Log = DefaultLog()
	}
	if cfg.RateLimit == (RateLimit{}) {
		cfg.RateLimit = DefaultRateLimit()
	}
	if cfg.Platform == (Platform{}) {
		cfg.Platform = DefaultPlatform()
	}
	if cfg.Staking == (Staking{}) {
		cfg.Staking = DefaultStaking()
	}
	if cfg.Governance == (Governance{}) {
		cfg.Governance = DefaultGovernance()
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  ":8080",
		MetricsPath: "/metrics",
		DataDir:     "./acdm-data",
		NetworkName: "acdm-local",
		Log:         DefaultLog(),
		RateLimit:   DefaultRateLimit(),
		Platform:    DefaultPlatform(),
		Staking:     DefaultStaking(),
		Governance:  DefaultGovernance(),
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
