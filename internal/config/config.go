package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	General struct {
		Provider string `koanf:"provider"`
		AI       string `koanf:"ai"`
	} `koanf:"general"`

	GitHub struct {
		Token    string `koanf:"token"`
		BotLogin string `koanf:"bot_login"`
	} `koanf:"github"`

	AI struct {
		APIKey      string  `koanf:"api_key"`
		Model       string  `koanf:"model"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
	} `koanf:"ai"`

	Review struct {
		MaxTurns     int    `koanf:"max_turns"` // 0 = unlimited
		BlockingOnly bool   `koanf:"blocking_only"`
		TimeoutMins  int    `koanf:"timeout_mins"`
		LogDir       string `koanf:"log_dir"`
	} `koanf:"review"`
}

// MaxTurnsPtr returns the configured turn budget as a nullable value; a zero
// or negative setting means unlimited.
func (c *Config) MaxTurnsPtr() *int {
	if c.Review.MaxTurns <= 0 {
		return nil
	}
	n := c.Review.MaxTurns
	return &n
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.provider":    "github",
		"general.ai":          "langchain",
		"github.bot_login":    "diffpilot",
		"ai.model":            "gemini-2.5-flash",
		"ai.temperature":      0.2,
		"review.max_turns":    30,
		"review.timeout_mins": 20,
		"review.log_dir":      "review_logs",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./diffpilot.toml", "$HOME/.diffpilot.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix DIFFPILOT_
	k.Load(env.Provider("DIFFPILOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "DIFFPILOT_")), "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# diffpilot configuration

[general]
provider = "github"
ai = "langchain"

[github]
token = "your-github-token"
bot_login = "diffpilot"

[ai]
api_key = "your-api-key"
model = "gemini-2.5-flash"
temperature = 0.2

[review]
max_turns = 30
blocking_only = false
timeout_mins = 20
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.General.Provider == "" {
		return fmt.Errorf("provider is required")
	}

	if config.General.AI == "" {
		return fmt.Errorf("AI provider is required")
	}

	switch config.General.Provider {
	case "github":
		if config.GitHub.Token == "" {
			return fmt.Errorf("github token is required")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", config.General.Provider)
	}

	if config.AI.APIKey == "" {
		return fmt.Errorf("ai api_key is required")
	}

	return nil
}
