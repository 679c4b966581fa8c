// Package config holds voxtutor configuration: a YAML file with defaults
// and environment-variable overrides for secrets and paths.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voxtutor/internal/persona"
)

// Config holds all voxtutor configuration.
type Config struct {
	Name string `yaml:"name"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Tutoring content
	Content ContentConfig `yaml:"content"`

	// Mastery persistence
	Mastery MasteryConfig `yaml:"mastery"`

	// Per-persona voice tags, opaque to the core
	Voices VoicesConfig `yaml:"voices"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the conversational model.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ContentConfig configures the tutoring content document.
type ContentConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // reload for new sessions when the file changes
}

// MasteryConfig configures the mastery database.
type MasteryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// VoicesConfig assigns a voice tag to each persona.
type VoicesConfig struct {
	Coordinator string `yaml:"coordinator"`
	Learn       string `yaml:"learn"`
	Quiz        string `yaml:"quiz"`
	TeachBack   string `yaml:"teach_back"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	voices := persona.DefaultVoices()
	return &Config{
		Name: "voxtutor",
		LLM: LLMConfig{
			Model: "gemini-2.5-flash",
		},
		Content: ContentConfig{
			Path:  "content/tutor_content.json",
			Watch: false,
		},
		Mastery: MasteryConfig{
			DatabasePath: "data/mastery.db",
		},
		Voices: VoicesConfig{
			Coordinator: voices[persona.TagCoordinator],
			Learn:       voices[persona.TagLearn],
			Quiz:        voices[persona.TagQuiz],
			TeachBack:   voices[persona.TagTeachBack],
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file doesn't exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file for secrets and
// deployment-specific paths.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("VOXTUTOR_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("VOXTUTOR_CONTENT"); path != "" {
		c.Content.Path = path
	}
	if path := os.Getenv("VOXTUTOR_DB"); path != "" {
		c.Mastery.DatabasePath = path
	}
	if level := os.Getenv("VOXTUTOR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// VoiceTags converts the config voices into the persona mapping.
func (c *Config) VoiceTags() persona.VoiceTags {
	return persona.VoiceTags{
		persona.TagCoordinator: c.Voices.Coordinator,
		persona.TagLearn:       c.Voices.Learn,
		persona.TagQuiz:        c.Voices.Quiz,
		persona.TagTeachBack:   c.Voices.TeachBack,
	}
}
