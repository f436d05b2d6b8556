package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full service configuration, loaded from the
// environment with sensible defaults for local development.
type Config struct {
	Service       ServiceConfig
	Session       SessionConfig
	Store         StoreConfig
	Assist        AssistConfig
	Speech        SpeechConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// SessionConfig configures the single-user credentials gate.
type SessionConfig struct {
	Username string
	Password string
	TTL      time.Duration
}

type StoreConfig struct {
	Path string
}

// AssistConfig configures the upstream text-generation API.
type AssistConfig struct {
	URL        string
	APIKey     string
	Model      string
	Timeout    time.Duration
	PromptPath string
}

type SpeechConfig struct {
	Provider       string
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
}

type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	TopicInteractions string
	TopicReminders    string
	Principal         string
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load reads configuration from the environment. Invalid numeric or
// boolean values fall back to their defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-relationship-notes")

	cfg := &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Session: SessionConfig{
			Username: envOrDefault("AUTH_USERNAME", "admin"),
			Password: os.Getenv("AUTH_PASSWORD"),
			TTL:      envOrDefaultDuration("AUTH_SESSION_TTL", 12*time.Hour),
		},
		Store: StoreConfig{
			Path: envOrDefault("STORE_PATH", "relationship-notes.db"),
		},
		Assist: AssistConfig{
			URL:        envOrDefault("ASSIST_API_URL", "https://api.openai.com/v1/chat/completions"),
			APIKey:     os.Getenv("ASSIST_API_KEY"),
			Model:      envOrDefault("ASSIST_MODEL", "gpt-4o-mini"),
			Timeout:    envOrDefaultDuration("ASSIST_TIMEOUT", 30*time.Second),
			PromptPath: os.Getenv("ASSIST_PROMPT_PATH"),
		},
		Speech: SpeechConfig{
			Provider:       envOrDefault("SPEECH_PROVIDER", "sim"),
			LanguageCode:   envOrDefault("SPEECH_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("SPEECH_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("SPEECH_INTERIM_RESULTS", true),
		},
		Kafka: KafkaConfig{
			Enabled:           envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:           splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			TopicInteractions: envOrDefault("KAFKA_TOPIC_INTERACTIONS", "crm.interaction.logged"),
			TopicReminders:    envOrDefault("KAFKA_TOPIC_REMINDERS", "crm.interaction.reminder"),
			Principal:         envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}

	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
