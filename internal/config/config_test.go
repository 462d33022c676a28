package config

import (
	"log/slog"
	"os"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var configEnvVars = []string{
	"OPENAI_API_KEY", "LLM_BASE_URL", "LLM_MODEL",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL", "EMBEDDING_VECTOR_SIZE",
	"QDRANT_URL", "COLLECTION", "DOCS_DIR", "DB_PATH",
	"CHUNK_STRATEGY", "CHUNK_SIZE", "CHUNK_OVERLAP", "TOP_K",
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// withCleanEnv unsets all config env vars and restores them after the test.
func withCleanEnv(t *testing.T) {
	t.Helper()

	originalEnv := make(map[string]string)
	for _, key := range configEnvVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	t.Cleanup(func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	withCleanEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLMModel != "gpt-3.5-turbo" {
		t.Errorf("LLMModel = %q, want gpt-3.5-turbo", cfg.LLMModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %q, want text-embedding-3-small", cfg.EmbeddingModel)
	}
	if cfg.EmbeddingVectorSize != 1536 {
		t.Errorf("EmbeddingVectorSize = %d, want 1536", cfg.EmbeddingVectorSize)
	}
	if cfg.Collection != "kb_documents" {
		t.Errorf("Collection = %q, want kb_documents", cfg.Collection)
	}
	if cfg.ChunkStrategy != StrategyHeaders {
		t.Errorf("ChunkStrategy = %q, want %q", cfg.ChunkStrategy, StrategyHeaders)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 50 {
		t.Errorf("ChunkOverlap = %d, want 50", cfg.ChunkOverlap)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
	if cfg.APIPort != "8000" {
		t.Errorf("APIPort = %q, want 8000", cfg.APIPort)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	withCleanEnv(t)

	setEnv("OPENAI_API_KEY", "sk-test")
	setEnv("LLM_MODEL", "gpt-4")
	setEnv("CHUNK_STRATEGY", StrategyTokens)
	setEnv("CHUNK_SIZE", "200")
	setEnv("CHUNK_OVERLAP", "20")
	setEnv("TOP_K", "8")
	setEnv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q", cfg.OpenAIAPIKey)
	}
	if cfg.LLMModel != "gpt-4" {
		t.Errorf("LLMModel = %q, want gpt-4", cfg.LLMModel)
	}
	if cfg.ChunkStrategy != StrategyTokens {
		t.Errorf("ChunkStrategy = %q, want %q", cfg.ChunkStrategy, StrategyTokens)
	}
	if cfg.ChunkSize != 200 || cfg.ChunkOverlap != 20 {
		t.Errorf("ChunkSize/ChunkOverlap = %d/%d, want 200/20", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 8 {
		t.Errorf("TopK = %d, want 8", cfg.TopK)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "invalid chunk strategy", key: "CHUNK_STRATEGY", value: "sentences"},
		{name: "non-integer chunk size", key: "CHUNK_SIZE", value: "five hundred"},
		{name: "zero chunk size", key: "CHUNK_SIZE", value: "0"},
		{name: "overlap not below size", key: "CHUNK_OVERLAP", value: "500"},
		{name: "negative overlap", key: "CHUNK_OVERLAP", value: "-1"},
		{name: "zero top k", key: "TOP_K", value: "0"},
		{name: "zero vector size", key: "EMBEDDING_VECTOR_SIZE", value: "0"},
		{name: "invalid log level", key: "LOG_LEVEL", value: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCleanEnv(t)
			setEnv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should return error", tt.key, tt.value)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("RequireAPIKey() with empty key should return error")
	} else if err.Error() != "OPENAI_API_KEY not found in environment variables" {
		t.Errorf("RequireAPIKey() error = %q", err.Error())
	}

	cfg.OpenAIAPIKey = "sk-test"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey() with key set error: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "WARN", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLogLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseLogLevel(%q) should return error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
