// Package config provides the configuration schema, loader, and hot-reload
// watcher for the phonoshift server.
package config

import "time"

// LogLevel controls log verbosity for the phonoshift server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Format names the on-disk layout of a training set.
type Format string

const (
	// FormatLines is the line-pair format: a target word on one line and
	// the observed pronunciation on the next.
	FormatLines Format = "lines"

	// FormatYAML is a YAML document with a list of target/actual pairs.
	FormatYAML Format = "yaml"
)

// IsValid reports whether f is a recognised training set format.
func (f Format) IsValid() bool {
	return f == FormatLines || f == FormatYAML
}

// MCPTransport selects how the MCP server is reached.
type MCPTransport string

const (
	// MCPStdio serves a single client over stdin/stdout.
	MCPStdio MCPTransport = "stdio"

	// MCPStreamableHTTP mounts the MCP Streamable HTTP endpoint at /mcp.
	MCPStreamableHTTP MCPTransport = "streamable-http"
)

// IsValid reports whether t is a recognised MCP transport.
func (t MCPTransport) IsValid() bool {
	return t == MCPStdio || t == MCPStreamableHTTP
}

// Config is the root configuration structure for phonoshift.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Training TrainingConfig  `yaml:"training"`
	Speakers []SpeakerConfig `yaml:"speakers"`
	Store    StoreConfig     `yaml:"store"`
	MCP      MCPConfig       `yaml:"mcp"`
}

// ServerConfig holds network and logging settings for the phonoshift server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// CORSOrigins lists the origins allowed to call the HTTP API from a
	// browser. Empty disables cross-origin access.
	CORSOrigins []string `yaml:"cors_origins"`

	// ShutdownTimeout bounds graceful shutdown. Zero means 15 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TrainingConfig tunes rule learning for every speaker.
type TrainingConfig struct {
	// ContrastRefinement also excludes the voicing counterpart of every
	// adjacency exception when generalizing rules.
	ContrastRefinement bool `yaml:"contrast_refinement"`
}

// SpeakerConfig declares one speaker and where their training data lives.
type SpeakerConfig struct {
	// Name identifies the speaker in the API and in the store.
	Name string `yaml:"name"`

	// File is a training set on disk. When empty the speaker's pairs are read
	// from the store.
	File string `yaml:"file"`

	// Format of File. Inferred from the extension when empty.
	Format Format `yaml:"format"`

	// ContrastRefinement overrides [TrainingConfig.ContrastRefinement] for
	// this speaker when set.
	ContrastRefinement *bool `yaml:"contrast_refinement"`
}

// StoreConfig configures persistence of training pairs.
type StoreConfig struct {
	// PostgresDSN enables the PostgreSQL store. When empty pairs are kept in
	// memory and lost on restart.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// MCPConfig configures the Model Context Protocol endpoint.
type MCPConfig struct {
	// Enabled turns the MCP server on.
	Enabled bool `yaml:"enabled"`

	// Transport is "streamable-http" (default) or "stdio". With stdio the
	// process serves one MCP client and no HTTP listener is started.
	Transport MCPTransport `yaml:"transport"`
}
