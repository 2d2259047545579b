package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Milvus   MilvusConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Reranker RerankerConfig
	Curation CurationConfig
	Search   SearchConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type MilvusConfig struct {
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	EmbeddingTTLSec int
	SearchTTLSec    int
}

type LLMConfig struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
	EmbeddingModel string
	EmbeddingDim   int
}

type RerankerConfig struct {
	Enabled    bool
	Endpoint   string
	TimeoutSec int
}

type CurationConfig struct {
	RelevanceThreshold float64
	QualityThreshold   float64
	ApproveThreshold   float64
	DuplicateSearchK   int
}

type SearchConfig struct {
	DefaultK     int
	RerankTopK   int
	MinScore     float64
	FilterBoost  float64
	UseReranking bool
	BoostFilters bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/printkb")

	viper.SetEnvPrefix("PRINTKB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate catches misconfiguration at startup. Curation with no LLM provider
// is not a meaningful degraded mode, so a missing API key is fatal here rather
// than surfacing as per-request failures later.
func validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.apiKey is required: no LLM provider configured")
	}
	if cfg.LLM.EmbeddingDim <= 0 {
		return fmt.Errorf("llm.embeddingDim must be positive, got %d", cfg.LLM.EmbeddingDim)
	}
	if cfg.Search.DefaultK <= 0 || cfg.Search.RerankTopK < cfg.Search.DefaultK {
		return fmt.Errorf("search.rerankTopK (%d) must be >= search.defaultK (%d) > 0",
			cfg.Search.RerankTopK, cfg.Search.DefaultK)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "kb_articles")
	viper.SetDefault("milvus.vectorDim", 1536)

	viper.SetDefault("sqlite.path", "./data/printkb.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.embeddingTTLSec", 86400)
	viper.SetDefault("redis.searchTTLSec", 300)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.embeddingDim", 1536)

	viper.SetDefault("reranker.enabled", true)
	viper.SetDefault("reranker.endpoint", "http://localhost:8090")
	viper.SetDefault("reranker.timeoutSec", 10)

	viper.SetDefault("curation.relevanceThreshold", 0.6)
	viper.SetDefault("curation.qualityThreshold", 0.6)
	viper.SetDefault("curation.approveThreshold", 0.7)
	viper.SetDefault("curation.duplicateSearchK", 5)

	viper.SetDefault("search.defaultK", 5)
	viper.SetDefault("search.rerankTopK", 20)
	viper.SetDefault("search.minScore", 0.3)
	viper.SetDefault("search.filterBoost", 0.1)
	viper.SetDefault("search.useReranking", true)
	viper.SetDefault("search.boostFilters", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
