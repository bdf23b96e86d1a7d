package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORS        []string         `json:"cors"`
	RateLimit   int              `json:"rate_limit_ms"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	VectorStore ProviderConfig   `json:"vector_store"`
	Session     SessionConfig    `json:"session"`
	Ingest      IngestConfig     `json:"ingest"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Mail        ProviderConfig   `json:"mail"`
	Maps        MapsConfig       `json:"maps"`
	Speech      ProviderConfig   `json:"speech"`
	TipsFile    string           `json:"tips_file"`
	Jobs        JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// ProviderConfig selects a registered implementation by name and hands it
// the free-form data section.
type ProviderConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Chat           []AIProviderConfig `json:"chat"`
	Embed          []AIProviderConfig `json:"embed"`
	Temperature    float32            `json:"temperature"`
	MaxTokens      int                `json:"max_tokens"`
	Timeout        int                `json:"timeout"`
	EmbedDimension int                `json:"embed_dimension"`
	EmbedCache     EmbedCacheConfig   `json:"embed_cache"`
}

type EmbedCacheConfig struct {
	LRUSize    int  `json:"lru_size"`
	LRUTTL     int  `json:"lru_ttl"`
	EnableDB   bool `json:"enable_db"`
	MaxAgeDays int  `json:"max_age_days"`
}

type SessionConfig struct {
	Type       string      `json:"type"`
	TTLMinutes int         `json:"ttl_minutes"`
	MaxEntries int         `json:"max_entries"`
	Redis      RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

type IngestConfig struct {
	ChunkSize     int   `json:"chunk_size"`
	ChunkOverlap  int   `json:"chunk_overlap"`
	BatchSize     int   `json:"batch_size"`
	MaxUploadSize int64 `json:"max_upload_size"`
}

type RetrievalConfig struct {
	TopK         int `json:"top_k"`
	SummaryTopK  int `json:"summary_top_k"`
	StoreTimeout int `json:"store_timeout"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type MapsConfig struct {
	APIKey string `json:"api_key"`
	Radius uint   `json:"radius"`
	Limit  int    `json:"limit"`
}

type JobsConfig struct {
	ReminderSpec       string `json:"reminder_spec"`
	SessionCleanupSpec string `json:"session_cleanup_spec"`
	EmbedCacheSpec     string `json:"embed_cache_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if len(cfg.AI.Chat) == 0 {
		return fmt.Errorf("ai.chat requires at least one provider")
	}
	if len(cfg.AI.Embed) == 0 {
		return fmt.Errorf("ai.embed requires at least one provider")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.4
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 500
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Session.Type == "" {
		cfg.Session.Type = "memory"
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 24 * 60
	}
	if cfg.Session.MaxEntries == 0 {
		cfg.Session.MaxEntries = 10000
	}
	switch cfg.Session.Type {
	case "memory":
	case "redis":
		if cfg.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for redis sessions")
		}
	default:
		return fmt.Errorf("session.type must be memory or redis")
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 50
	}
	if cfg.Ingest.MaxUploadSize == 0 {
		cfg.Ingest.MaxUploadSize = 20 * 1024 * 1024
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.SummaryTopK == 0 {
		cfg.Retrieval.SummaryTopK = 5
	}
	if cfg.Retrieval.StoreTimeout == 0 {
		cfg.Retrieval.StoreTimeout = 15
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Mail.Type == "" {
		cfg.Mail.Type = "smtp"
	}
	if cfg.Speech.Type == "" {
		cfg.Speech.Type = "google"
	}
	if cfg.Maps.Radius == 0 {
		cfg.Maps.Radius = 5000
	}
	if cfg.Maps.Limit == 0 {
		cfg.Maps.Limit = 5
	}
	if cfg.TipsFile == "" {
		cfg.TipsFile = "./data/general_help.txt"
	}
	if cfg.Jobs.ReminderSpec == "" {
		cfg.Jobs.ReminderSpec = "* * * * *"
	}
	if cfg.Jobs.SessionCleanupSpec == "" {
		cfg.Jobs.SessionCleanupSpec = "*/10 * * * *"
	}
	if cfg.Jobs.EmbedCacheSpec == "" {
		cfg.Jobs.EmbedCacheSpec = "30 3 * * *"
	}
	return nil
}

// applyEnv lets deployments keep secrets out of the config file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MEDASSIST_JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDASSIST_DATABASE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDASSIST_MAPS_API_KEY")); v != "" {
		cfg.Maps.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDASSIST_REDIS_PASSWORD")); v != "" {
		cfg.Session.Redis.Password = v
	}
}
