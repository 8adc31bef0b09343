package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all agent settings.
type Config struct {
	Agent   AgentConfig   `toml:"agent"`
	Storage StorageConfig `toml:"storage"`
	VACM    VACMConfig    `toml:"vacm"`
	Logging LoggingConfig `toml:"logging"`
}

// AgentConfig holds agent-wide settings.
type AgentConfig struct {
	// Contexts lists the supported context names; "" is the default context.
	Contexts []string `toml:"contexts"`
	EngineID string   `toml:"engine_id"` // hex, 5..32 octets
	// Strict panics on a failed undo or journal write instead of reporting
	// it in the response.
	Strict bool `toml:"strict"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Path string `toml:"path"` // SQLite file path
}

// VACMConfig points at the access control bootstrap.
type VACMConfig struct {
	File string `toml:"file"` // YAML, empty for none
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Environment variables that override the file.
const (
	EnvDB       = "SNMPCORE_DB"
	EnvLogLevel = "SNMPCORE_LOG_LEVEL"
)

// maxContextName is the SnmpAdminString size limit of a context name.
const maxContextName = 32

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Contexts: []string{""},
		},
		Storage: StorageConfig{
			Path: "snmpcore.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadTOML(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) && path != "" {
			ve.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// loadTOML decodes path into c, rejecting keys c has no field for.
func (c *Config) loadTOML(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return &ValidationError{File: path, Field: undecoded[0].String(), Message: "unknown key"}
	}
	return nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks every field.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Agent.Contexts))
	for i, name := range c.Agent.Contexts {
		field := fmt.Sprintf("agent.contexts[%d]", i)
		if len(name) > maxContextName {
			return invalid(field, "context name longer than %d octets", maxContextName)
		}
		if seen[name] {
			return invalid(field, "duplicate context %q", name)
		}
		seen[name] = true
	}
	if c.Agent.EngineID != "" {
		id, err := hex.DecodeString(c.Agent.EngineID)
		if err != nil {
			return invalid("agent.engine_id", "not hex: %v", err)
		}
		if len(id) < 5 || len(id) > 32 {
			return invalid("agent.engine_id", "%d octets, want 5..32", len(id))
		}
	}
	if c.Storage.Path == "" {
		return invalid("storage.path", "must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("logging.level", "%v", err)
	}
	return nil
}

// LogLevel parses the configured level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// EngineID returns the decoded engine id, nil when unset.
func (c *Config) EngineID() []byte {
	id, _ := hex.DecodeString(c.Agent.EngineID)
	if len(id) == 0 {
		return nil
	}
	return id
}
