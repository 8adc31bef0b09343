package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{""}, cfg.Agent.Contexts)
	assert.Equal(t, "snmpcore.db", cfg.Storage.Path)
	assert.Nil(t, cfg.EngineID())
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load("testdata/agent.toml")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "ctx1"}, cfg.Agent.Contexts)
	assert.Equal(t, "/var/lib/snmpcore/agent.db", cfg.Storage.Path)
	assert.Equal(t, "vacm.yaml", cfg.VACM.File)
	assert.Len(t, cfg.EngineID(), 13)
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvDB, "/tmp/override.db")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load("testdata/agent.toml")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Storage.Path)
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, "agent.toml", "[storage]\npaht = \"x.db\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "storage.paht")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		toml  string
		field string
	}{
		{"duplicate context", "[agent]\ncontexts = [\"a\", \"a\"]\n", "agent.contexts[1]"},
		{"long context", "[agent]\ncontexts = [\"0123456789012345678901234567890123\"]\n", "agent.contexts[0]"},
		{"engine id not hex", "[agent]\nengine_id = \"zz\"\n", "agent.engine_id"},
		{"engine id short", "[agent]\nengine_id = \"0102\"\n", "agent.engine_id"},
		{"empty db path", "[storage]\npath = \"\"\n", "storage.path"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "agent.toml", tt.toml)
			_, err := Load(path)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, path, ve.File)
		})
	}
}
