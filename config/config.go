// Package config resolves the host configuration from layered sources.
//
// Precedence, lowest first: built-in defaults, config files, .env files,
// XPUB_ environment variables, in-process overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/loader"
)

const (
	// EnvPrefix is the prefix of every environment variable read as configuration.
	EnvPrefix = "XPUB_"

	// EnvConfigFile names an optional config file, read before the explicit one.
	EnvConfigFile = "XPUB_CONFIG_FILE"

	// EnvEnvFiles is a comma separated list of .env files. Defaults to ".env".
	EnvEnvFiles = "XPUB_ENV_FILES"

	// NestedDelimiter separates key path segments in environment variable names.
	NestedDelimiter = "__"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const defaults = `
publish_host: 0.0.0.0
publish_port: 9000
log_level: debug
log_format: text
datasets_config: {}
plugins_load_defaults: true
plugins_config: {}
disable_health: false
disable_metrics: false
metrics_app_name: xpublish
metrics_prefix_name: xpublish_host
metrics_environment: development
watch_config: false
shutdown_timeout: 10
`

type Config struct {
	PublishHost string `yaml:"publish_host"`
	PublishPort int    `yaml:"publish_port"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Datasets are served by an implicit datasets_config plugin.
	Datasets descriptor.Set `yaml:"datasets_config"`

	PluginsLoadDefaults bool                 `yaml:"plugins_load_defaults"`
	Plugins             descriptor.PluginSet `yaml:"plugins_config"`

	DisableHealth  bool `yaml:"disable_health"`
	DisableMetrics bool `yaml:"disable_metrics"`

	MetricsAppName     string `yaml:"metrics_app_name"`
	MetricsPrefixName  string `yaml:"metrics_prefix_name"`
	MetricsEnvironment string `yaml:"metrics_environment"`

	WatchConfig     bool `yaml:"watch_config"`
	ShutdownTimeout int  `yaml:"shutdown_timeout"`

	// Files are the config files that were read, in order.
	Files []string `yaml:"-"`
}

// Address is the listen address built from publish_host and publish_port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.PublishHost, strconv.Itoa(c.PublishPort))
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

type Options struct {
	// File is an explicit config file. Unlike XPUB_CONFIG_FILE, it must exist.
	File string

	// Overrides take precedence over every other source. Nested maps merge
	// into nested configuration the same way files do.
	Overrides map[string]any

	// Environ defaults to os.Environ().
	Environ []string

	// Loaders resolves dataset loader references. Defaults to loader.Builtin().
	Loaders *loader.Registry
}

// Load reads every source, merges them, and validates the result.
func Load(opts Options) (*Config, error) {
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	env := parseEnviron(environ)

	merged, err := parseYAML([]byte(defaults))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Config files
	if path := env[EnvConfigFile]; path != "" {
		if _, err := os.Stat(path); err == nil {
			node, err := ReadFile(path)
			if err != nil {
				return nil, err
			}
			merged = Merge(merged, node)
			cfg.Files = append(cfg.Files, path)
		}
	}
	if opts.File != "" {
		node, err := ReadFile(opts.File)
		if err != nil {
			return nil, err
		}
		merged = Merge(merged, node)
		cfg.Files = append(cfg.Files, opts.File)
	}

	// .env files
	dotenv, err := readDotEnv(env[EnvEnvFiles])
	if err != nil {
		return nil, err
	}
	node, err := EnvNode(dotenv)
	if err != nil {
		return nil, err
	}
	merged = Merge(merged, node)

	// Environment
	node, err = EnvNode(env)
	if err != nil {
		return nil, err
	}
	merged = Merge(merged, node)

	// Overrides
	if len(opts.Overrides) > 0 {
		node := &yaml.Node{}
		if err := node.Encode(opts.Overrides); err != nil {
			return nil, fmt.Errorf("%w: overrides: %w", ErrInvalidConfig, err)
		}
		merged = Merge(merged, node)
	}

	if err := merged.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	loaders := opts.Loaders
	if loaders == nil {
		loaders = loader.Builtin()
	}
	if err := cfg.Validate(loaders); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the merged configuration and resolves dataset loaders against loaders.
func (c *Config) Validate(loaders *loader.Registry) error {
	if ip := net.ParseIP(c.PublishHost); ip == nil || ip.To4() == nil {
		return fmt.Errorf("%w: publish_host is not an IPv4 address: %q", ErrInvalidConfig, c.PublishHost)
	}
	if c.PublishPort <= 0 || c.PublishPort > 65535 {
		return fmt.Errorf("%w: publish_port out of range: %d", ErrInvalidConfig, c.PublishPort)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json: %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown_timeout is negative", ErrInvalidConfig)
	}
	if err := c.Datasets.Resolve(loaders); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
