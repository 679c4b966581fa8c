package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxtutor/internal/persona"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "voxtutor", cfg.Name)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Empty(t, cfg.LLM.APIKey, "no default API key")
	assert.Equal(t, "content/tutor_content.json", cfg.Content.Path)
	assert.False(t, cfg.Content.Watch)
	assert.Equal(t, "data/mastery.db", cfg.Mastery.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Every persona gets a non-empty default voice.
	for tag, voice := range cfg.VoiceTags() {
		assert.NotEmpty(t, voice, "voice for %s", tag)
	}
}

// clearEnvOverrides blanks all recognized override variables so the ambient
// environment can't leak into a test.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "VOXTUTOR_MODEL", "VOXTUTOR_CONTENT", "VOXTUTOR_DB", "VOXTUTOR_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnvOverrides(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "does_not_exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxtutor.yaml")
	data := `
name: study-buddy
llm:
  model: gemini-2.5-pro
content:
  path: /srv/content.json
  watch: true
mastery:
  database_path: /srv/mastery.db
voices:
  coordinator: en-GB-oliver
  learn: en-GB-amelia
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	clearEnvOverrides(t)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "study-buddy", cfg.Name)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, "/srv/content.json", cfg.Content.Path)
	assert.True(t, cfg.Content.Watch)
	assert.Equal(t, "/srv/mastery.db", cfg.Mastery.DatabasePath)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Overridden voices take effect; unspecified ones keep their defaults.
	assert.Equal(t, "en-GB-oliver", cfg.Voices.Coordinator)
	assert.Equal(t, "en-GB-amelia", cfg.Voices.Learn)
	assert.Equal(t, DefaultConfig().Voices.Quiz, cfg.Voices.Quiz)
	assert.Equal(t, DefaultConfig().Voices.TeachBack, cfg.Voices.TeachBack)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxtutor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-123")
	t.Setenv("VOXTUTOR_MODEL", "gemini-2.0-flash")
	t.Setenv("VOXTUTOR_CONTENT", "/tmp/content.json")
	t.Setenv("VOXTUTOR_DB", "/tmp/mastery.db")
	t.Setenv("VOXTUTOR_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "test-key-123", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "/tmp/content.json", cfg.Content.Path)
	assert.Equal(t, "/tmp/mastery.db", cfg.Mastery.DatabasePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxtutor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: from-file\n"), 0o644))
	t.Setenv("VOXTUTOR_MODEL", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)
}

func TestVoiceTags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Voices.Quiz = "en-AU-ruby"

	tags := cfg.VoiceTags()
	assert.Equal(t, "en-AU-ruby", tags[persona.TagQuiz])
	assert.Len(t, tags, len(persona.AllTags()))
}
