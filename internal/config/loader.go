package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// Relative speaker file paths are resolved against the directory of path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.MCP.Transport == "" {
		cfg.MCP.Transport = MCPStreamableHTTP
	}
	for i := range cfg.Speakers {
		sp := &cfg.Speakers[i]
		if sp.Format == "" && sp.File != "" {
			sp.Format = FormatFromPath(sp.File)
		}
	}
}

func (cfg *Config) resolvePaths(base string) {
	for i := range cfg.Speakers {
		sp := &cfg.Speakers[i]
		if sp.File != "" && !filepath.IsAbs(sp.File) {
			sp.File = filepath.Join(base, sp.File)
		}
	}
}

// FormatFromPath infers a training set format from a file extension.
// Anything that is not .yaml or .yml is treated as [FormatLines].
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatLines
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}

	// Speakers
	seen := make(map[string]int, len(cfg.Speakers))
	for i, sp := range cfg.Speakers {
		prefix := fmt.Sprintf("speakers[%d]", i)
		if sp.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := seen[sp.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of speakers[%d]", prefix, sp.Name, prev))
			}
			seen[sp.Name] = i
		}
		if sp.Format != "" && !sp.Format.IsValid() {
			errs = append(errs, fmt.Errorf("%s.format %q is invalid; valid values: lines, yaml", prefix, sp.Format))
		}
		if sp.File == "" && cfg.Store.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s: file is required when store.postgres_dsn is not configured", prefix))
		}
	}

	// MCP
	if cfg.MCP.Transport != "" && !cfg.MCP.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("mcp.transport %q is invalid; valid values: stdio, streamable-http", cfg.MCP.Transport))
	}

	if len(cfg.Speakers) == 0 {
		slog.Warn("no speakers configured; models can only be trained through the API")
	}
	if cfg.Store.PostgresDSN == "" {
		slog.Warn("store.postgres_dsn is empty; training pairs uploaded through the API will not survive a restart")
	}

	return errors.Join(errs...)
}
