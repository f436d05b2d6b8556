package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear relevant env vars
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"AUTH_USERNAME", "AUTH_PASSWORD", "AUTH_SESSION_TTL",
		"STORE_PATH", "ASSIST_API_URL", "ASSIST_MODEL", "ASSIST_TIMEOUT",
		"SPEECH_PROVIDER", "SPEECH_LANGUAGE_CODE", "SPEECH_SAMPLE_RATE_HZ",
		"SPEECH_INTERIM_RESULTS",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Service defaults
	if cfg.Service.Principal != "svc-relationship-notes" {
		t.Errorf("expected default principal 'svc-relationship-notes', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.Service.HTTPPort)
	}

	// Session defaults
	if cfg.Session.Username != "admin" {
		t.Errorf("expected default username 'admin', got %s", cfg.Session.Username)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("expected default session TTL 12h, got %v", cfg.Session.TTL)
	}

	// Speech defaults
	if cfg.Speech.Provider != "sim" {
		t.Errorf("expected default speech provider 'sim', got %s", cfg.Speech.Provider)
	}
	if cfg.Speech.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.Speech.LanguageCode)
	}
	if cfg.Speech.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Speech.SampleRateHz)
	}
	if cfg.Speech.InterimResults != true {
		t.Errorf("expected default interim results true, got %v", cfg.Speech.InterimResults)
	}

	// Assist defaults
	if cfg.Assist.Model != "gpt-4o-mini" {
		t.Errorf("expected default model 'gpt-4o-mini', got %s", cfg.Assist.Model)
	}
	if cfg.Assist.Timeout != 30*time.Second {
		t.Errorf("expected default assist timeout 30s, got %v", cfg.Assist.Timeout)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.Brokers != nil {
		t.Errorf("expected nil brokers by default, got %v", cfg.Kafka.Brokers)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("AUTH_USERNAME", "taylor")
	os.Setenv("AUTH_SESSION_TTL", "1h")
	os.Setenv("SPEECH_PROVIDER", "google")
	os.Setenv("SPEECH_LANGUAGE_CODE", "es-ES")
	os.Setenv("SPEECH_SAMPLE_RATE_HZ", "8000")
	os.Setenv("SPEECH_INTERIM_RESULTS", "false")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "kafka-0:9092, kafka-1:9092")

	defer func() {
		os.Unsetenv("SERVICE_PRINCIPAL")
		os.Unsetenv("HTTP_PORT")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("AUTH_USERNAME")
		os.Unsetenv("AUTH_SESSION_TTL")
		os.Unsetenv("SPEECH_PROVIDER")
		os.Unsetenv("SPEECH_LANGUAGE_CODE")
		os.Unsetenv("SPEECH_SAMPLE_RATE_HZ")
		os.Unsetenv("SPEECH_INTERIM_RESULTS")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("KAFKA_BROKERS")
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Session.Username != "taylor" {
		t.Errorf("expected username 'taylor', got %s", cfg.Session.Username)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("expected session TTL 1h, got %v", cfg.Session.TTL)
	}
	if cfg.Speech.Provider != "google" {
		t.Errorf("expected speech provider 'google', got %s", cfg.Speech.Provider)
	}
	if cfg.Speech.LanguageCode != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", cfg.Speech.LanguageCode)
	}
	if cfg.Speech.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.Speech.SampleRateHz)
	}
	if cfg.Speech.InterimResults != false {
		t.Errorf("expected interim results false, got %v", cfg.Speech.InterimResults)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "kafka-0:9092" || cfg.Kafka.Brokers[1] != "kafka-1:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("SPEECH_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("SPEECH_INTERIM_RESULTS", "invalid")
	os.Setenv("AUTH_SESSION_TTL", "invalid")
	os.Setenv("ASSIST_TIMEOUT", "invalid")

	defer func() {
		os.Unsetenv("SPEECH_SAMPLE_RATE_HZ")
		os.Unsetenv("SPEECH_INTERIM_RESULTS")
		os.Unsetenv("AUTH_SESSION_TTL")
		os.Unsetenv("ASSIST_TIMEOUT")
	}()

	cfg := Load()

	if cfg.Speech.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Speech.SampleRateHz)
	}
	if cfg.Speech.InterimResults != true {
		t.Errorf("expected default interim results on invalid input, got %v", cfg.Speech.InterimResults)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("expected default session TTL on invalid input, got %v", cfg.Session.TTL)
	}
	if cfg.Assist.Timeout != 30*time.Second {
		t.Errorf("expected default assist timeout on invalid input, got %v", cfg.Assist.Timeout)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
