// Package config loads the agentflow configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kataras/golog"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/layout"
	"github.com/smallnest/agentflow/log"
)

// FileName is the name of the config file inside Dir.
const FileName = "config.toml"

// Config holds agentflow configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Workflow WorkflowConfig `toml:"workflow"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Layout   LayoutConfig   `toml:"layout"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
	Golog bool   `toml:"golog"` // use kataras/golog instead of the standard logger
}

// WorkflowConfig sets the identity of new workflows.
type WorkflowConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// CatalogConfig lists node type files merged into the built-in catalog.
type CatalogConfig struct {
	Extensions []string `toml:"extensions"`
}

// LayoutConfig holds the auto-layout spacings.
type LayoutConfig struct {
	AgentSpacing  float64 `toml:"agent_spacing"`
	ColumnSpacing float64 `toml:"column_spacing"`
	RowSpacing    float64 `toml:"row_spacing"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log:      LogConfig{Level: "info"},
		Workflow: WorkflowConfig{ID: graph.DefaultID, Name: graph.DefaultName},
		Catalog:  CatalogConfig{Extensions: []string{}},
		Layout: LayoutConfig{
			AgentSpacing:  layout.DefaultAgentSpacing,
			ColumnSpacing: layout.DefaultColumnSpacing,
			RowSpacing:    layout.DefaultRowSpacing,
		},
	}
}

// Dir returns the agentflow config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "agentflow")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), FileName)
}

// Load reads the config file at path, or at Path() when path is empty.
// A missing file yields the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// extension paths are relative to the config file
	base := filepath.Dir(path)
	for i, ext := range cfg.Catalog.Extensions {
		if !filepath.IsAbs(ext) {
			cfg.Catalog.Extensions[i] = filepath.Join(base, ext)
		}
	}
	return cfg, nil
}

// Save writes the config to path, or to Path() when path is empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, Default())
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is empty")
	}
	if c.Layout.AgentSpacing <= 0 || c.Layout.ColumnSpacing <= 0 || c.Layout.RowSpacing <= 0 {
		return errors.New("layout spacings must be positive")
	}
	return nil
}

// Logger builds the configured logger.
func (c *Config) Logger() (log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Log.Golog {
		glogger := golog.New()
		glogger.SetPrefix("[agentflow] ")
		l := log.NewGologLogger(glogger)
		l.SetLevel(level)
		return l, nil
	}
	return log.NewDefaultLogger(level), nil
}

// Registry returns the built-in catalog extended with the configured files.
func (c *Config) Registry() (*catalog.Registry, error) {
	return catalog.Default().ExtendFiles(c.Catalog.Extensions...)
}

// LayoutOptions converts the layout section.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		AgentSpacing:  c.Layout.AgentSpacing,
		ColumnSpacing: c.Layout.ColumnSpacing,
		RowSpacing:    c.Layout.RowSpacing,
	}
}

// WorkflowOptions returns the graph options for a new workflow.
func (c *Config) WorkflowOptions() []graph.Option {
	return []graph.Option{graph.WithID(c.Workflow.ID), graph.WithName(c.Workflow.Name)}
}
