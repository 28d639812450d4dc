// Package config loads the settings shared by the gokn command and scripts.
//
// Settings come from (lowest to highest precedence) built-in defaults, a YAML file, and GOKN_* environment
// variables, e.g. GOKN_STORAGE_ROOT or GOKN_ORACLE_BACKEND.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/oracle"
	"github.com/2x3systems/gokn/libkn/store"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "GOKN"

type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Oracle  OracleConfig  `yaml:"oracle"  mapstructure:"oracle"`
	Engine  EngineConfig  `yaml:"engine"  mapstructure:"engine"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log"     mapstructure:"log"`
}

type StorageConfig struct {
	Kind     string `yaml:"kind"      mapstructure:"kind"`
	Root     string `yaml:"root"      mapstructure:"root"`
	ReadOnly bool   `yaml:"read_only" mapstructure:"read_only"`
}

type OracleConfig struct {
	Backend    string        `yaml:"backend"     mapstructure:"backend"`
	LabelgPath string        `yaml:"labelg_path" mapstructure:"labelg_path"`
	Timeout    time.Duration `yaml:"timeout"     mapstructure:"timeout"`
}

type EngineConfig struct {
	Overwrite bool `yaml:"overwrite" mapstructure:"overwrite"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // listen address for /metrics; empty disables
}

type LogConfig struct {
	Verbosity int `yaml:"verbosity" mapstructure:"verbosity"`
}

// Default returns the settings used when no file or environment override is given.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Kind: store.TextKind,
			Root: "data",
		},
		Oracle: OracleConfig{
			Backend:    oracle.LabelgBackend,
			LabelgPath: "labelg",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.kind", cfg.Storage.Kind)
	v.SetDefault("storage.root", cfg.Storage.Root)
	v.SetDefault("storage.read_only", cfg.Storage.ReadOnly)
	v.SetDefault("oracle.backend", cfg.Oracle.Backend)
	v.SetDefault("oracle.labelg_path", cfg.Oracle.LabelgPath)
	v.SetDefault("oracle.timeout", cfg.Oracle.Timeout)
	v.SetDefault("engine.overwrite", cfg.Engine.Overwrite)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("log.verbosity", cfg.Log.Verbosity)
}

// Load reads the YAML file at pathname (if non-empty), applies environment overrides, and validates the result.
func Load(pathname string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if pathname != "" {
		v.SetConfigFile(pathname)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %q", pathname)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting names something that exists.
func (cfg *Config) Validate() error {
	switch cfg.Storage.Kind {
	case store.TextKind:
		if cfg.Storage.Root == "" {
			return errors.New("config: storage.root is required for the text store")
		}
	case store.BadgerKind:
	default:
		return errors.Errorf("config: unknown storage.kind %q", cfg.Storage.Kind)
	}

	known := false
	for _, name := range oracle.Backends() {
		if name == cfg.Oracle.Backend {
			known = true
		}
	}
	if !known {
		return errors.Wrapf(gokn.ErrUnknownBackend, "config: oracle.backend %q", cfg.Oracle.Backend)
	}
	if cfg.Oracle.Timeout < 0 {
		return errors.New("config: oracle.timeout must not be negative")
	}
	if cfg.Log.Verbosity < 0 {
		return errors.New("config: log.verbosity must not be negative")
	}
	return nil
}

func (cfg *Config) StoreOpts() gokn.StoreOpts {
	return gokn.StoreOpts{
		Kind:     cfg.Storage.Kind,
		Root:     cfg.Storage.Root,
		ReadOnly: cfg.Storage.ReadOnly,
	}
}

func (cfg *Config) OracleOpts() gokn.OracleOpts {
	return gokn.OracleOpts{
		Backend:    cfg.Oracle.Backend,
		LabelgPath: cfg.Oracle.LabelgPath,
		Timeout:    cfg.Oracle.Timeout,
	}
}

// WriteYAML writes cfg in the file format accepted by Load.
func (cfg *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
