package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Store        StoreConfig        `mapstructure:"store"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Blob         BlobConfig         `mapstructure:"blob"`
	Verification VerificationConfig `mapstructure:"verification"`
	Messaging    MessagingConfig    `mapstructure:"messaging"`
	Signup       SignupConfig       `mapstructure:"signup"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig 选择 KV 存储后端：redis 或 sql
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Namespace string `mapstructure:"namespace"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig 仅在 store.driver=sql 时使用
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expire time.Duration `mapstructure:"expire"`
}

// BlobConfig 对象存储配置
type BlobConfig struct {
	Driver        string `mapstructure:"driver"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	LocalDir      string `mapstructure:"local_dir"`

	S3Endpoint     string        `mapstructure:"s3_endpoint"`
	S3Region       string        `mapstructure:"s3_region"`
	S3AccessKey    string        `mapstructure:"s3_access_key"`
	S3SecretKey    string        `mapstructure:"s3_secret_key"`
	S3PresignTTL   time.Duration `mapstructure:"s3_presign_ttl"`
	BucketPrefix   string        `mapstructure:"bucket_prefix"`
	ProfileBucket  string        `mapstructure:"profile_bucket"`
	IDCardBucket   string        `mapstructure:"id_card_bucket"`
	PostBucket     string        `mapstructure:"post_bucket"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type VerificationConfig struct {
	ReviewDelay   time.Duration `mapstructure:"review_delay"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type MessagingConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	NotifyOnMessage bool          `mapstructure:"notify_on_message"`
}

type SignupConfig struct {
	AllowedEmailSuffixes []string `mapstructure:"allowed_email_suffixes"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// Load 读取配置：默认值 < 配置文件 < 环境变量（APP_ 前缀）
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "redis")
	v.SetDefault("store.namespace", "college-connect")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "college-connect.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.expire", 24*time.Hour)

	v.SetDefault("blob.driver", "local")
	v.SetDefault("blob.public_base_url", "http://localhost:8080")
	v.SetDefault("blob.local_dir", "./data/blobs")
	v.SetDefault("blob.s3_region", "us-east-1")
	v.SetDefault("blob.s3_presign_ttl", 15*time.Minute)
	v.SetDefault("blob.bucket_prefix", "college-connect-")
	v.SetDefault("blob.profile_bucket", "profile-pictures")
	v.SetDefault("blob.id_card_bucket", "college-ids")
	v.SetDefault("blob.post_bucket", "post-images")
	v.SetDefault("blob.max_upload_bytes", 10<<20)

	v.SetDefault("verification.review_delay", 3*time.Second)
	v.SetDefault("verification.sweep_interval", time.Second)

	v.SetDefault("messaging.poll_interval", 3*time.Second)
	v.SetDefault("messaging.notify_on_message", true)

	v.SetDefault("signup.allowed_email_suffixes", []string{".edu", "@test.com", "@example.com", "@demo.com"})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("tracing.service_name", "college-connect")
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
}

// Validate 检查互相依赖的配置项
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "redis", "sql":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Blob.Driver {
	case "s3", "local":
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Blob.Driver == "s3" && c.Blob.S3Endpoint == "" {
		return fmt.Errorf("blob.s3_endpoint is required for the s3 driver")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Verification.ReviewDelay < 0 {
		return fmt.Errorf("verification.review_delay must not be negative")
	}
	if c.Verification.SweepInterval <= 0 {
		return fmt.Errorf("verification.sweep_interval must be positive")
	}
	if len(c.Signup.AllowedEmailSuffixes) == 0 {
		return fmt.Errorf("signup.allowed_email_suffixes must not be empty")
	}
	return nil
}

// Addr 返回 HTTP 监听地址
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }
