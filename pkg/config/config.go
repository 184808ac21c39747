package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Milvus    MilvusConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Cache     CacheConfig
	Logging   LoggingConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type EmbeddingConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	TimeoutSec int
}

type SearchConfig struct {
	Enabled         bool
	GoogleAPIKey    string
	GoogleEngineID  string
	MaxResults      int
	ProviderTimeout int
	ScrapeContent   bool
}

type CacheConfig struct {
	Capacity            int
	StandardTTL         time.Duration
	HotTTL              time.Duration
	HotThreshold        int
	SimilarityThreshold float64
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
	viper.AddConfigPath("/etc/svtr-rag")

	viper.SetEnvPrefix("SVTR_RAG")
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

	return &config, nil
}

// Validate reports configuration errors that must stop startup. Missing
// provider credentials are fatal here so they never surface per-request
// as silent empty answers.
func (c *Config) Validate() error {
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.apiKey is required")
	}
	if c.Milvus.Endpoint == "" {
		return fmt.Errorf("milvus.endpoint is required")
	}
	if c.Milvus.VectorDim <= 0 {
		return fmt.Errorf("milvus.vectorDim must be positive, got %d", c.Milvus.VectorDim)
	}
	if c.Embedding.Dimensions != c.Milvus.VectorDim {
		return fmt.Errorf("embedding.dimensions (%d) must match milvus.vectorDim (%d)",
			c.Embedding.Dimensions, c.Milvus.VectorDim)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache.similarityThreshold must be in (0,1], got %f", c.Cache.SimilarityThreshold)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "venture_knowledge")
	viper.SetDefault("milvus.vectorDim", 1536)

	viper.SetDefault("sqlite.path", "./data/ragcore.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.timeoutSec", 15)

	viper.SetDefault("search.enabled", true)
	viper.SetDefault("search.maxResults", 5)
	viper.SetDefault("search.providerTimeout", 5)
	viper.SetDefault("search.scrapeContent", false)

	viper.SetDefault("cache.capacity", 1000)
	viper.SetDefault("cache.standardTTL", 30*time.Minute)
	viper.SetDefault("cache.hotTTL", 2*time.Hour)
	viper.SetDefault("cache.hotThreshold", 3)
	viper.SetDefault("cache.similarityThreshold", 0.85)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
