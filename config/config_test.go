package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/botstrings/config"
)

var allKeys = []string{
	"BOTSTRINGS_BACKEND",
	"BOTSTRINGS_SOURCE_LANG",
	"BOTSTRINGS_API_KEY",
	"BOTSTRINGS_BASE_URL",
	"BOTSTRINGS_MODEL",
	"BOTSTRINGS_PROXY",
	"BOTSTRINGS_TIMEOUT",
	"BOTSTRINGS_MARKER_MIN",
}

// unsetEnv removes keys for the duration of the test; t.Setenv registers
// the restore.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, allKeys...)

	cfg, err := config.Load()
	require.NoError(t, err, "Load should succeed without a .env file")

	assert.Equal(t, "google", cfg.Backend)
	assert.Equal(t, "auto", cfg.SourceLang)
	assert.Equal(t, "", cfg.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MarkerMin)
}

func TestLoad_Environment(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("BOTSTRINGS_BACKEND", "openai")
	t.Setenv("BOTSTRINGS_API_KEY", "sk-test")
	t.Setenv("BOTSTRINGS_TIMEOUT", "15s")
	t.Setenv("BOTSTRINGS_MARKER_MIN", "2")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MarkerMin)
}

func TestLoad_EnvFile(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("BOTSTRINGS_MODEL", "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	content := "BOTSTRINGS_BACKEND=echo\nBOTSTRINGS_SOURCE_LANG=en\nBOTSTRINGS_MODEL=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "echo", cfg.Backend)
	assert.Equal(t, "en", cfg.SourceLang)
	assert.Equal(t, "from-environment", cfg.Model, "environment should win over .env")
}

func TestLoad_MissingEnvFile(t *testing.T) {
	unsetEnv(t, allKeys...)

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err, "an explicitly named env file must exist")
}

func TestLoad_Invalid(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("BOTSTRINGS_MARKER_MIN", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))

	t.Setenv("BOTSTRINGS_MARKER_MIN", "1")
	t.Setenv("BOTSTRINGS_TIMEOUT", "soon")
	_, err = config.Load()
	require.Error(t, err, "unparsable duration should fail")
}
