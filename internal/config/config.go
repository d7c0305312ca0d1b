// Package config provides configuration for the chat service.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the chat service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Completion gateway
	Mode             string
	LLMBaseURL       string
	LLMAPIKey        string
	LLMModel         string
	LLMTimeout       time.Duration
	MaxTokens        int
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64

	// Transcript
	SystemPrompt  string
	HistoryWindow int

	// WebSocket settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", DefaultDatabaseURL),
		Mode:             getEnv("CHAT_MODE", ""),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:        getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o"),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		MaxTokens:        getEnvInt("LLM_MAX_TOKENS", 100),
		Temperature:      getEnvFloat("LLM_TEMPERATURE", 0.7),
		PresencePenalty:  getEnvFloat("LLM_PRESENCE_PENALTY", 0.1),
		FrequencyPenalty: getEnvFloat("LLM_FREQUENCY_PENALTY", 0.1),
		SystemPrompt:     DefaultSystemPrompt,
		HistoryWindow:    getEnvInt("CHAT_HISTORY_WINDOW", 10),
		WSPingInterval:   time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WSWriteTimeout:   time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		WSReadTimeout:    time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		WSMaxMessageSize: int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
	}

	if path := os.Getenv("CHAT_SYSTEM_PROMPT_FILE"); path != "" {
		prompt, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt: %w", err)
		}
		cfg.SystemPrompt = string(prompt)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 {
		return fmt.Errorf("HTTP_PORT must be > 0")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if strings.Contains(c.DatabaseURL, "cache=shared") && !isMemoryDSN(c.DatabaseURL) {
		return fmt.Errorf("DATABASE_URL must not use cache=shared for a file database")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("CHAT_HISTORY_WINDOW must be > 0")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2]")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_MS must be > 0")
	}
	if c.WSReadTimeout > 0 && c.TurnTimeout() >= c.WSReadTimeout {
		return fmt.Errorf("LLM_TIMEOUT_MS plus %s must be below WS_READ_TIMEOUT_MS", TurnGrace)
	}
	if c.SystemPrompt == "" {
		return fmt.Errorf("system prompt cannot be empty")
	}
	if !c.IsMock() && c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required unless CHAT_MODE=MOCK")
	}
	return nil
}

// IsMock reports whether the completion gateway should be mocked.
func (c *Config) IsMock() bool {
	return c.Mode == ModeMock
}

// TurnTimeout bounds one chat turn: the gateway timeout plus TurnGrace for the store.
func (c *Config) TurnTimeout() time.Duration {
	return c.LLMTimeout + TurnGrace
}

// ModeMock selects the in-process mock completion gateway.
const ModeMock = "MOCK"

// DefaultDatabaseURL uses a private cache and immediate write transactions.
const DefaultDatabaseURL = "file:chat.db?mode=rwc&_busy_timeout=5000&_txlock=immediate"

// TurnGrace is added to the gateway timeout for the store work around a turn.
const TurnGrace = 10 * time.Second

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
