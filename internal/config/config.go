package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/video-qa-client/internal/constants"
)

type Config struct {
	API     APIConfig
	Chat    ChatConfig
	Web     WebConfig
	Logging LoggingConfig
}

type APIConfig struct {
	BaseURL string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
}

type ChatConfig struct {
	Route   string
	Presets []string
}

type WebConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000"), "/"),
			Timeout: time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 0)) * time.Second,
		},
		Chat: ChatConfig{
			Route:   getEnv("CHAT_ROUTE", constants.Routes.Chat),
			Presets: parseCommaSeparated(getEnv("PRESET_QUESTIONS", strings.Join(constants.DefaultPresets, ","))),
		},
		Web: WebConfig{
			Addr: getEnv("WEB_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/vqa.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("API_BASE_URL must include a host")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must not be negative")
	}
	if !strings.HasPrefix(c.Chat.Route, "/") {
		return fmt.Errorf("CHAT_ROUTE must start with /")
	}
	if c.Chat.Route == constants.Routes.Index {
		return fmt.Errorf("CHAT_ROUTE must differ from the index route %q", constants.Routes.Index)
	}
	if c.Web.Addr == "" {
		return fmt.Errorf("WEB_ADDR is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
