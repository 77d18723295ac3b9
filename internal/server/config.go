package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Store  *StoreSettings `hcl:"store,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address            string `hcl:"address,optional"`
	Port               int    `hcl:"port,optional"`
	LogLevel           string `hcl:"log_level,optional"`
	TurnTimeoutSeconds int    `hcl:"turn_timeout_seconds,optional"`
}

// StoreSettings selects the persistence backend
type StoreSettings struct {
	Backend string `hcl:"backend,optional"` // memory or sqlite
	Path    string `hcl:"path,optional"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:            "localhost",
			Port:               8080,
			LogLevel:           "info",
			TurnTimeoutSeconds: 30,
		},
		Store: &StoreSettings{
			Backend: "memory",
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.TurnTimeoutSeconds == 0 {
		config.Server.TurnTimeoutSeconds = 30
	}
	if config.Store == nil {
		config.Store = &StoreSettings{Backend: "memory"}
	}
	if config.Store.Backend == "" {
		config.Store.Backend = "memory"
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.TurnTimeoutSeconds < 1 {
		return fmt.Errorf("turn timeout must be at least 1 second")
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("sqlite backend requires a path")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// ListenAddr returns the full listen address
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TurnTimeout returns the turn timeout as a duration
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Server.TurnTimeoutSeconds) * time.Second
}
