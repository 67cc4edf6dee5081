package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	Extractor ExtractorConfig
	Recon     ReconConfig
	Rules     RulesConfig
	Filing    FilingConfig
	CORS      CORSConfig
	Queue     QueueConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds verification settings for tokens issued by the upstream
// auth layer. The engine validates identity; it never issues tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for raw document storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderConfig holds settings for a single extraction provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds the ordered provider chain and chain policy.
type ExtractorConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	// ConfidenceFloor is the minimum average field confidence for an
	// attempt to count as adequate; below it the chain moves on.
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
	MaxParallelDocs int     `mapstructure:"max_parallel_docs"`
}

// ChainConfigs returns the configured providers in chain order.
func (e *ExtractorConfig) ChainConfigs() []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range []*ProviderConfig{&e.Primary, &e.Secondary, &e.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReconConfig tunes conflict resolution.
type ReconConfig struct {
	// AutoFixThresholdRupees: monetary disagreements at or under this gap,
	// when trust and confidence both tie, resolve to the higher value.
	AutoFixThresholdRupees int64 `mapstructure:"auto_fix_threshold_rupees"`
}

// RulesConfig locates rule tables.
type RulesConfig struct {
	Dir            string `mapstructure:"dir"`
	DefaultVersion string `mapstructure:"default_version"`
}

// FilingConfig holds the external e-filing collaborator settings.
type FilingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QueueConfig holds extraction worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// Load reads configuration from environment variables with the SUPERCA_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SUPERCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "superca")
	v.SetDefault("db.password", "superca_secret")
	v.SetDefault("db.name", "superca_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "superca")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "superca-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "claude")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)
	v.SetDefault("extractor.tertiary.provider", "")
	v.SetDefault("extractor.tertiary.api_key", "")
	v.SetDefault("extractor.tertiary.default_model", "")
	v.SetDefault("extractor.tertiary.timeout_secs", 120)
	v.SetDefault("extractor.confidence_floor", 0.5)
	v.SetDefault("extractor.max_parallel_docs", 4)

	// Recon defaults
	v.SetDefault("recon.auto_fix_threshold_rupees", 100)

	// Rules defaults
	v.SetDefault("rules.dir", "")
	v.SetDefault("rules.default_version", "")

	// Filing defaults
	v.SetDefault("filing.endpoint", "")
	v.SetDefault("filing.api_key", "")
	v.SetDefault("filing.timeout_secs", 60)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.concurrency", 4)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@superca.in")
	v.SetDefault("email.from_name", "SuperCA")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "SUPERCA_SERVER_PORT",
		"server.read_timeout":              "SUPERCA_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "SUPERCA_SERVER_WRITE_TIMEOUT",
		"server.environment":               "SUPERCA_SERVER_ENVIRONMENT",
		"db.host":                          "SUPERCA_DB_HOST",
		"db.port":                          "SUPERCA_DB_PORT",
		"db.user":                          "SUPERCA_DB_USER",
		"db.password":                      "SUPERCA_DB_PASSWORD",
		"db.name":                          "SUPERCA_DB_NAME",
		"db.sslmode":                       "SUPERCA_DB_SSLMODE",
		"db.max_open":                      "SUPERCA_DB_MAX_OPEN",
		"db.max_idle":                      "SUPERCA_DB_MAX_IDLE",
		"jwt.secret":                       "SUPERCA_JWT_SECRET",
		"jwt.issuer":                       "SUPERCA_JWT_ISSUER",
		"s3.region":                        "SUPERCA_S3_REGION",
		"s3.bucket":                        "SUPERCA_S3_BUCKET",
		"s3.endpoint":                      "SUPERCA_S3_ENDPOINT",
		"s3.access_key":                    "SUPERCA_S3_ACCESS_KEY",
		"s3.secret_key":                    "SUPERCA_S3_SECRET_KEY",
		"s3.max_file_size_mb":              "SUPERCA_S3_MAX_FILE_SIZE_MB",
		"log.level":                        "SUPERCA_LOG_LEVEL",
		"log.format":                       "SUPERCA_LOG_FORMAT",
		"extractor.primary.provider":       "SUPERCA_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":        "SUPERCA_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":  "SUPERCA_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.timeout_secs":   "SUPERCA_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.secondary.provider":     "SUPERCA_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":      "SUPERCA_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "SUPERCA_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.timeout_secs": "SUPERCA_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"extractor.tertiary.provider":      "SUPERCA_EXTRACTOR_TERTIARY_PROVIDER",
		"extractor.tertiary.api_key":       "SUPERCA_EXTRACTOR_TERTIARY_API_KEY",
		"extractor.tertiary.default_model": "SUPERCA_EXTRACTOR_TERTIARY_DEFAULT_MODEL",
		"extractor.tertiary.timeout_secs":  "SUPERCA_EXTRACTOR_TERTIARY_TIMEOUT_SECS",
		"extractor.confidence_floor":       "SUPERCA_EXTRACTOR_CONFIDENCE_FLOOR",
		"extractor.max_parallel_docs":      "SUPERCA_EXTRACTOR_MAX_PARALLEL_DOCS",
		"recon.auto_fix_threshold_rupees":  "SUPERCA_RECON_AUTO_FIX_THRESHOLD_RUPEES",
		"rules.dir":                        "SUPERCA_RULES_DIR",
		"rules.default_version":            "SUPERCA_RULES_DEFAULT_VERSION",
		"filing.endpoint":                  "SUPERCA_FILING_ENDPOINT",
		"filing.api_key":                   "SUPERCA_FILING_API_KEY",
		"filing.timeout_secs":              "SUPERCA_FILING_TIMEOUT_SECS",
		"cors.allowed_origins":             "SUPERCA_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":         "SUPERCA_QUEUE_POLL_INTERVAL_SECS",
		"queue.concurrency":                "SUPERCA_QUEUE_CONCURRENCY",
		"email.provider":                   "SUPERCA_EMAIL_PROVIDER",
		"email.region":                     "SUPERCA_EMAIL_REGION",
		"email.from_address":               "SUPERCA_EMAIL_FROM_ADDRESS",
		"email.from_name":                  "SUPERCA_EMAIL_FROM_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SUPERCA_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SUPERCA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary: ProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Secondary: ProviderConfig{
			Provider:     v.GetString("extractor.secondary.provider"),
			APIKey:       v.GetString("extractor.secondary.api_key"),
			DefaultModel: v.GetString("extractor.secondary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.secondary.timeout_secs"),
		},
		Tertiary: ProviderConfig{
			Provider:     v.GetString("extractor.tertiary.provider"),
			APIKey:       v.GetString("extractor.tertiary.api_key"),
			DefaultModel: v.GetString("extractor.tertiary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.tertiary.timeout_secs"),
		},
		ConfidenceFloor: v.GetFloat64("extractor.confidence_floor"),
		MaxParallelDocs: v.GetInt("extractor.max_parallel_docs"),
	}
	cfg.Recon = ReconConfig{
		AutoFixThresholdRupees: v.GetInt64("recon.auto_fix_threshold_rupees"),
	}
	cfg.Rules = RulesConfig{
		Dir:            v.GetString("rules.dir"),
		DefaultVersion: v.GetString("rules.default_version"),
	}
	cfg.Filing = FilingConfig{
		Endpoint:    v.GetString("filing.endpoint"),
		APIKey:      v.GetString("filing.api_key"),
		TimeoutSecs: v.GetInt("filing.timeout_secs"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	return cfg, nil
}
