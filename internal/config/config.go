package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Backend    BackendConfig    `mapstructure:"backend"`
	TokenStore TokenStoreConfig `mapstructure:"token_store"`
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Tracing    TracingConfig   `mapstructure:"tracing"`
	CORS       CORSConfig      `mapstructure:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Exam       ExamConfig      `mapstructure:"exam"`
	Log        LogConfig       `mapstructure:"log"`

	// 运行时标志，通过命令行参数设置
	ConfigPath string `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// BackendConfig describes the remote learning backend every store talks to.
type BackendConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	Burst        int           `mapstructure:"burst"`
}

type TokenStoreConfig struct {
	Type     string `mapstructure:"type"`
	FilePath string `mapstructure:"file_path"`
	Secret   string `mapstructure:"secret"`
}

type DatabaseConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Driver    string `mapstructure:"driver"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string `mapstructure:"dbname"`
	Charset   string
	ParseTime bool   `mapstructure:"parse_time"`
	SSLMode   string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// ExamConfig holds the mock exam session policy.
type ExamConfig struct {
	AutoSubmitOnExpiry bool          `mapstructure:"auto_submit_on_expiry"`
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	ClinicPollInterval time.Duration `mapstructure:"clinic_poll_interval"`
	WorkspaceIdleTTL   time.Duration `mapstructure:"workspace_idle_ttl"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.rate_limit_rps", 20.0)
	v.SetDefault("backend.burst", 40)

	v.SetDefault("token_store.type", "memory")
	v.SetDefault("token_store.file_path", "data/tokens.json")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "archive")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("exam.auto_submit_on_expiry", true)
	v.SetDefault("exam.tick_interval", time.Second)
	v.SetDefault("exam.clinic_poll_interval", 2*time.Second)
	v.SetDefault("exam.workspace_idle_ttl", 2*time.Hour)

	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("log.file", "logs/dashboard.log")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DASHBOARD")
	v.AutomaticEnv()

	setDefaults(v)

	// Backend
	v.BindEnv("backend.base_url", "BACKEND_BASE_URL")
	v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")

	// Token store
	v.BindEnv("token_store.type", "TOKEN_STORE_TYPE")
	v.BindEnv("token_store.file_path", "TOKEN_STORE_FILE")
	v.BindEnv("token_store.secret", "TOKEN_STORE_SECRET")

	// Database
	v.BindEnv("database.enabled", "DATABASE_ENABLED")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")
	v.BindEnv("tracing.sample_ratio", "TRACING_SAMPLE_RATIO")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate rejects configurations the dashboard cannot run with.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", c.Tracing.SampleRatio)
	}
	if c.Exam.TickInterval <= 0 {
		return fmt.Errorf("exam.tick_interval must be positive, got %s", c.Exam.TickInterval)
	}

	switch c.TokenStore.Type {
	case "memory", "redis":
	case "file":
		// 生产环境校验密钥强度
		if c.Server.Mode == "release" && len(c.TokenStore.Secret) < 32 {
			return fmt.Errorf("token_store.secret is too short (%d chars), must be at least 32 characters in release mode", len(c.TokenStore.Secret))
		}
		if c.TokenStore.Secret == "" {
			return fmt.Errorf("token_store.secret is required for the file token store")
		}
	default:
		return fmt.Errorf("unknown token_store.type %q", c.TokenStore.Type)
	}

	if c.Database.Enabled {
		switch c.Database.Driver {
		case "mysql", "postgres":
		default:
			return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
		}
	}
	return nil
}
