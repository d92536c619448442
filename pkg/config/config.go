// Package config loads the application configuration from YAML with
// environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// API Keys
	OpenAIKey string `yaml:"openai_key"`
	GeminiKey string `yaml:"gemini_key"`

	// Provider selects the LLM backend: "openai", "gemini", "ollama",
	// or "mock".
	Provider string `yaml:"provider"`

	// OllamaURL is the base URL of the Ollama server's OpenAI-compatible
	// endpoint. Empty uses the default localhost address.
	OllamaURL string `yaml:"ollama_url"`

	// Session history bound: older turns beyond this count are dropped.
	MaxHistoryLength int `yaml:"max_history_length"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Agents holds per-call-type model settings. Keys: "security",
	// "context", "question_analysis", "conversational".
	Agents map[string]AgentConfig `yaml:"agents"`

	// Server configuration
	Server ServerConfig `yaml:"server"`

	// RateLimit bounds LLM calls per second (0 disables).
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AgentConfig holds the model settings for one call type.
type AgentConfig struct {
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	// RetryAttempts is the repair-retry budget on top of the first call.
	RetryAttempts int `yaml:"retry_attempts"`
}

// StorageConfig selects and configures the session backend.
type StorageConfig struct {
	// Backend is "memory", "file", or "redis".
	Backend string `yaml:"backend"`
	// Dir is the base directory for the file backend.
	Dir string `yaml:"dir"`
	// RedisAddr is the host:port for the redis backend.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RateLimitConfig bounds outbound LLM requests.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Call-type names used as Agents keys.
const (
	AgentSecurity         = "security"
	AgentContext          = "context"
	AgentQuestionAnalysis = "question_analysis"
	AgentConversational   = "conversational"
)

// Default returns the configuration used when no file is given.
// Classification-style calls run short and cold; the conversational call
// runs longer and warmer and is the only one with a repair-retry budget.
func Default() *Config {
	return &Config{
		Provider:         "openai",
		MaxHistoryLength: 20,
		Storage:          StorageConfig{Backend: "memory", RedisAddr: "localhost:6379"},
		Server:           ServerConfig{Addr: ":8080"},
		RateLimit:        RateLimitConfig{RPS: 5, Burst: 10},
		Agents: map[string]AgentConfig{
			AgentSecurity: {
				Timeout:       120 * time.Second,
				Temperature:   0.1,
				MaxTokens:     2048,
				RetryAttempts: 0,
			},
			AgentContext: {
				Timeout:       120 * time.Second,
				Temperature:   0.1,
				MaxTokens:     2048,
				RetryAttempts: 0,
			},
			AgentQuestionAnalysis: {
				Timeout:       120 * time.Second,
				Temperature:   0.1,
				MaxTokens:     2048,
				RetryAttempts: 0,
			},
			AgentConversational: {
				Timeout:       180 * time.Second,
				Temperature:   0.7,
				MaxTokens:     4096,
				RetryAttempts: 1,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file, filling unset fields
// from defaults and secrets from the environment. An empty path returns
// the defaults with environment secrets applied.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyDefaults(cfg)

	// Load API keys from environment if not in config
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GOOGLE_API_KEY")
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Provider == "" {
		cfg.Provider = def.Provider
	}
	if cfg.MaxHistoryLength == 0 {
		cfg.MaxHistoryLength = def.MaxHistoryLength
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = def.Storage.Backend
	}
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = def.Storage.RedisAddr
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Agents == nil {
		cfg.Agents = def.Agents
		return
	}
	for name, defAgent := range def.Agents {
		agent, ok := cfg.Agents[name]
		if !ok {
			cfg.Agents[name] = defAgent
			continue
		}
		if agent.Timeout == 0 {
			agent.Timeout = defAgent.Timeout
		}
		if agent.MaxTokens == 0 {
			agent.MaxTokens = defAgent.MaxTokens
		}
		cfg.Agents[name] = agent
	}
}

// Agent returns the settings for a call type, falling back to the
// defaults for unknown names.
func (c *Config) Agent(name string) AgentConfig {
	if a, ok := c.Agents[name]; ok {
		return a
	}
	return Default().Agents[AgentConversational]
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("openai provider requires an API key")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("gemini provider requires an API key")
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}

	switch c.Storage.Backend {
	// An empty file-backend dir falls back to ~/.specdraft/sessions.
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if c.MaxHistoryLength < 2 {
		return fmt.Errorf("max_history_length must be at least 2")
	}
	return nil
}
