package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"caixinha/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int

	// Ledger bootstrap
	ReferenceDate string
	SeedRoster    bool

	// Assistant
	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
	AssistantTimeout time.Duration

	// Answer cache
	AnswerCacheSize int
	AnswerCacheTTL  time.Duration
	RedisAddr       string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

const (
	DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLLMModel   = "gemini-3-flash-preview"
)

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		ReferenceDate: getEnv("REFERENCE_DATE", core.DefaultReferenceDate.String()),
		SeedRoster:    getEnvBool("SEED_ROSTER", true),

		LLMAPIKey:        firstEnv("LLM_API_KEY", "API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", DefaultLLMBaseURL),
		LLMModel:         getEnv("LLM_MODEL", DefaultLLMModel),
		AssistantTimeout: getEnvDuration("ASSISTANT_TIMEOUT", 30*time.Second),

		AnswerCacheSize: getEnvInt("ANSWER_CACHE_SIZE", 100),
		AnswerCacheTTL:  getEnvDuration("ANSWER_CACHE_TTL", 10*time.Minute),
		RedisAddr:       getEnv("REDIS_ADDR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "caixinha"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Reference parses ReferenceDate. Call after Validate.
func (c *Config) Reference() core.Date {
	d, err := core.ParseDate(c.ReferenceDate)
	if err != nil {
		return core.DefaultReferenceDate
	}
	return d
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := core.ParseDate(c.ReferenceDate); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reference date '%s': must be YYYY-MM-DD", c.ReferenceDate))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.LLMBaseURL != "" {
		if u, err := url.Parse(c.LLMBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid LLM base URL '%s': must be http or https", c.LLMBaseURL))
		}
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		errors = append(errors, "LLM model cannot be empty")
	}
	if c.AssistantTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid assistant timeout %v: must be at least 1 second", c.AssistantTimeout))
	} else if c.AssistantTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid assistant timeout %v: must be at most 5 minutes", c.AssistantTimeout))
	}

	if c.AnswerCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid answer cache size %d: must not be negative", c.AnswerCacheSize))
	}
	if c.AnswerCacheSize > 0 && c.AnswerCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid answer cache TTL %v: must be positive", c.AnswerCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
