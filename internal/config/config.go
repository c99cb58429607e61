package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names the language-model backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Language model backend
	LLMProvider     Provider
	ModelHigh       string
	ModelStandard   string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaHost      string
	AWSRegion       string
	LLMTimeout      time.Duration
	LLMRateLimit    int
	LLMRateWindow   time.Duration

	// Board orchestration
	Platform            string
	HistoryWindow       int
	DispatchConcurrency int
	MaxReplyTokens      int
	SummaryMaxTokens    int

	// HTTP server
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	provider := Provider(strings.ToLower(getEnv("BOARD_LLM_PROVIDER", string(ProviderAnthropic))))
	high, standard := defaultModels(provider)

	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "marketplace"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "board"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     provider,
		ModelHigh:       getEnv("BOARD_MODEL_HIGH", high),
		ModelStandard:   getEnv("BOARD_MODEL_STANDARD", standard),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		LLMTimeout:      getEnvDuration("BOARD_LLM_TIMEOUT", 60*time.Second),
		LLMRateLimit:    getEnvInt("BOARD_LLM_RATE_LIMIT", 50),
		LLMRateWindow:   getEnvDuration("BOARD_LLM_RATE_WINDOW", time.Minute),

		Platform:            getEnv("BOARD_PLATFORM", "barter-marketplace"),
		HistoryWindow:       getEnvInt("BOARD_HISTORY_WINDOW", 20),
		DispatchConcurrency: getEnvInt("BOARD_DISPATCH_CONCURRENCY", 1),
		MaxReplyTokens:      getEnvInt("BOARD_MAX_REPLY_TOKENS", 1024),
		SummaryMaxTokens:    getEnvInt("BOARD_SUMMARY_MAX_TOKENS", 1024),

		ServerPort: getEnv("BOARD_SERVER_PORT", "8484"),

		LogFile:  getEnv("BOARD_LOG_FILE", "/tmp/boardroom.log"),
		LogLevel: parseLogLevel(getEnv("BOARD_LOG_LEVEL", "INFO")),
	}
}

// defaultModels returns the high and standard tier model names for a provider.
func defaultModels(p Provider) (string, string) {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o", "gpt-4o-mini"
	case ProviderOllama:
		return "llama3.1:70b", "llama3.1:8b"
	case ProviderBedrock:
		return "anthropic.claude-3-5-sonnet-20240620-v1:0", "anthropic.claude-3-haiku-20240307-v1:0"
	default:
		return "claude-3-5-sonnet-latest", "claude-3-5-haiku-latest"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
