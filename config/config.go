// Package config loads the core's configuration from environment
// variables, following the per-concern load*Config() pattern and
// provider-keyed credential resolution chain used throughout the
// sibling bot's config loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/siherrmann/ragcore/helper"
)

type Config struct {
	Database helper.DatabaseConfiguration
	Embedder EmbedderConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Server   ServerConfig
	Budget   BudgetConfig
	Log      LogConfig
}

func Load() (*Config, error) {
	db, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	embedder, err := loadEmbedderConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: *db,
		Embedder: embedder,
		LLM:      llm,
		Pipeline: loadPipelineConfig(),
		Server:   loadServerConfig(),
		Budget:   loadBudgetConfig(),
		Log:      loadLogConfig(),
	}, nil
}

type EmbedderConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func loadEmbedderConfig() (EmbedderConfig, error) {
	provider := getEnvDefault("EMBEDDER_PROVIDER", "openai")

	apiKey, err := getAPIKey(provider, "EMBEDDER")
	if err != nil {
		return EmbedderConfig{}, err
	}

	return EmbedderConfig{
		Provider: provider,
		Model:    getEnvDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		BaseURL:  os.Getenv("EMBEDDER_BASE_URL"),
		APIKey:   apiKey,
		Timeout:  getEnvDuration("EMBED_CALL_TIMEOUT", 10*time.Second),
	}, nil
}

type LLMConfig struct {
	Provider        string
	Model           string
	VerifierModel   string
	BaseURL         string
	APIKey          string
	CallTimeout     time.Duration
	MaxInflight     int
}

func loadLLMConfig() (LLMConfig, error) {
	provider := getEnvDefault("LLM_PROVIDER", "openai")

	apiKey, err := getAPIKey(provider, "LLM")
	if err != nil {
		return LLMConfig{}, err
	}

	model := getEnvDefault("GENERATION_MODEL", "gpt-4o-mini")

	return LLMConfig{
		Provider:      provider,
		Model:         model,
		VerifierModel: getEnvDefault("VERIFIER_MODEL", model),
		BaseURL:       os.Getenv("LLM_BASE_URL"),
		APIKey:        apiKey,
		CallTimeout:   getEnvDuration("LLM_CALL_TIMEOUT", 30*time.Second),
		MaxInflight:   getEnvInt("LLM_MAX_INFLIGHT", 16),
	}, nil
}

// PipelineConfig carries every stage kill switch and threshold named in
// the environment configuration table.
type PipelineConfig struct {
	EnableMemory                bool
	MemorySimilarityThreshold   float64
	EnableChunkClassification   bool
	EnableSubquestionAmplification bool
	EnableAnswerVerification    bool
	ChunkRelevanceThreshold     float64
	VerificationThreshold       float64
	MinKeepChunks               int
	MaxSubquestions             int
	AmplificationMinContextLen  int
	ClassifyConcurrency         int
	SubqConcurrency             int
	EnableDialogRetrieval       bool
	Deadline                    time.Duration
	DBCallTimeout               time.Duration
}

func loadPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EnableMemory:                   getEnvBoolDefault("ENABLE_MEMORY", true),
		MemorySimilarityThreshold:      getEnvFloatDefault("MEMORY_SIMILARITY_THRESHOLD", 0.95),
		EnableChunkClassification:      getEnvBoolDefault("ENABLE_CHUNK_CLASSIFICATION", true),
		EnableSubquestionAmplification: getEnvBoolDefault("ENABLE_SUBQUESTION_AMPLIFICATION", true),
		EnableAnswerVerification:       getEnvBoolDefault("ENABLE_ANSWER_VERIFICATION", true),
		ChunkRelevanceThreshold:        getEnvFloatDefault("CHUNK_RELEVANCE_THRESHOLD", 0.5),
		VerificationThreshold:          getEnvFloatDefault("VERIFICATION_THRESHOLD", 0.7),
		MinKeepChunks:                  getEnvInt("MIN_KEEP_CHUNKS", 2),
		MaxSubquestions:                getEnvInt("MAX_SUBQUESTIONS", 4),
		AmplificationMinContextLen:     getEnvInt("AMPLIFICATION_MIN_CONTEXT_LENGTH", 500),
		ClassifyConcurrency:            getEnvInt("CLASSIFY_CONCURRENCY", 8),
		SubqConcurrency:                getEnvInt("SUBQ_CONCURRENCY", 4),
		EnableDialogRetrieval:          getEnvBoolDefault("ENABLE_DIALOG_RETRIEVAL", true),
		Deadline:                       getEnvDuration("PIPELINE_DEADLINE", 60*time.Second),
		DBCallTimeout:                  getEnvDuration("DB_CALL_TIMEOUT", 5*time.Second),
	}
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            getEnvDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

type BudgetConfig struct {
	DailyTokenLimit int
	WarnAt          float64
}

func loadBudgetConfig() BudgetConfig {
	return BudgetConfig{
		DailyTokenLimit: getEnvInt("BUDGET_DAILY_TOKEN_LIMIT", 0),
		WarnAt:          getEnvFloatDefault("BUDGET_WARN_AT", 0.8),
	}
}

type LogConfig struct {
	Format string
	Level  string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Format: getEnvDefault("LOG_FORMAT", "pretty"),
		Level:  getEnvDefault("LOG_LEVEL", "info"),
	}
}

func getAPIKey(provider, prefix string) (string, error) {
	if key := os.Getenv(prefix + "_API_KEY"); key != "" {
		return key, nil
	}

	switch provider {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return key, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		return key, nil
	case "ollama":
		return "ollama", nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloatDefault(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
