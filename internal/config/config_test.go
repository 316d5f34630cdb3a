package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exprsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv(string) string { return "" }

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	d, err := cfg.Target()
	require.NoError(t, err)
	assert.Equal(t, dialect.Latest(dialect.PostgreSQL), d)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Equal(t, "sqlite3", cfg.Probe.Driver)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("", noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
dialect:
  family: mysql
  version: "8.0.31"
render:
  placeholders: dollar
  normalize_identifiers: true
catalog: schema/shop.cue
log:
  level: debug
`)

	cfg, err := Load(path, noEnv)
	require.NoError(t, err)

	d, err := cfg.Target()
	require.NoError(t, err)
	assert.Equal(t, dialect.Dialect{Family: dialect.MySQL, Version: dialect.V(8, 0, 31)}, d)
	assert.True(t, cfg.Render.NormalizeIdentifiers)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "schema", "shop.cue"), cfg.Catalog)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, ":memory:", cfg.Probe.DSN, "unset sections keep defaults")

	opts, err := cfg.RenderOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), noEnv)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", cfg.Dialect.Family)
}

func TestLoad_InterpolatesEnvironment(t *testing.T) {
	path := writeConfig(t, `
probe:
  driver: postgres
  dsn: ${PROBE_DSN}
dialect:
  family: ${FAMILY:-sqlite}
`)
	getenv := func(key string) string {
		if key == "PROBE_DSN" {
			return "postgres://localhost/test"
		}
		return ""
	}

	cfg, err := Load(path, getenv)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/test", cfg.Probe.DSN)
	assert.Equal(t, "sqlite", cfg.Dialect.Family)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown field", "dialetc:\n  family: pg\n", "field dialetc not found"},
		{"bad family", "dialect:\n  family: oracle\n", "oracle"},
		{"bad version", "dialect:\n  family: pg\n  version: x.y\n", "x.y"},
		{"bad placeholder", "render:\n  placeholders: colon\n", "invalid placeholder style"},
		{"bad level", "log:\n  level: loud\n", `log.level "loud"`},
		{"bad driver", "probe:\n  driver: oracle\n", `probe.driver "oracle"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content), noEnv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Render.Placeholders = "colon"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
	assert.Contains(t, err.Error(), "log.level")
}
