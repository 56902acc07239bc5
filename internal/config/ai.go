package config

import (
	"os"
	"strconv"
)

// AIProvider names a generation backend strategy.
type AIProvider string

const (
	ProviderGemini     AIProvider = "GEMINI"
	ProviderOpenRouter AIProvider = "OPENROUTER"
	ProviderOllama     AIProvider = "OLLAMA"
	ProviderCustom     AIProvider = "CUSTOM"
)

// AIConfig holds all AI-related configuration.
type AIConfig struct {
	Provider  AIProvider `json:"provider"`
	APIKey    string     `json:"-"` // Never serialize
	Model     string     `json:"model"`
	BaseURL   string     `json:"baseUrl"`
	TimeoutMS int        `json:"timeoutMs"`
}

// DefaultAIConfig returns the AI configuration from the environment.
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		Provider:  AIProvider(getEnvOrDefault("AI_PROVIDER", string(ProviderGemini))),
		APIKey:    os.Getenv("AI_API_KEY"),
		Model:     getEnvOrDefault("AI_MODEL", "gemini-2.0-flash"),
		BaseURL:   os.Getenv("AI_BASE_URL"),
		TimeoutMS: getEnvOrDefaultInt("AI_TIMEOUT_MS", 10000),
	}
}

// IsEnabled returns true if the AI backend is configured. Ollama needs no
// API key.
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != "" || c.Provider == ProviderOllama
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
