package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/usecase"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Summary SummaryPrompts `yaml:"summary"`

	// Source is the file the prompts were read from, empty for built-in defaults
	Source string `yaml:"-"`
}

// SummaryPrompts contains the summarization instruction and sampling
type SummaryPrompts struct {
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"/etc/replydigest/prompts.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		// Return default config if no file found
		return DefaultPromptsConfig(), nil
	}

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.Source = loadedPath

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Summary.SystemPrompt == "" {
		c.Summary.SystemPrompt = defaults.Summary.SystemPrompt
	}
	if c.Summary.Temperature == 0 {
		c.Summary.Temperature = defaults.Summary.Temperature
	}
	if c.Summary.MaxTokens == 0 {
		c.Summary.MaxTokens = defaults.Summary.MaxTokens
	}
}

// DefaultPromptsConfig returns the built-in prompts
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Summary: SummaryPrompts{
			SystemPrompt: usecase.DefaultSystemPrompt,
			Temperature:  domain.DefaultSampling.Temperature,
			MaxTokens:    domain.DefaultSampling.MaxTokens,
		},
	}
}
