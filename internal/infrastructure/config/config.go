package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Bot      BotConfig      `mapstructure:"bot"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds the connection URL of the dialog session and reminder store
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	APITokenSecret     string        `mapstructure:"api_token_secret"`
	APITokenIssuer     string        `mapstructure:"api_token_issuer"`
	APITokenTTL        time.Duration `mapstructure:"api_token_ttl"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// NotifierConfig holds notification dispatcher configuration
type NotifierConfig struct {
	GatewayURL           string        `mapstructure:"gateway_url"`
	ScanInterval         time.Duration `mapstructure:"scan_interval"`
	ReminderPollInterval time.Duration `mapstructure:"reminder_poll_interval"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	ReminderBatchSize    int64         `mapstructure:"reminder_batch_size"`
}

// BotConfig holds chat-bot configuration
type BotConfig struct {
	Token          string        `mapstructure:"token"`
	APIBaseURL     string        `mapstructure:"api_base_url"`
	APITimeout     time.Duration `mapstructure:"api_timeout"`
	GatewayPort    int           `mapstructure:"gateway_port"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	PollTimeout    int           `mapstructure:"poll_timeout"`
	SendRatePerSec float64       `mapstructure:"send_rate_per_sec"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	// Configure viper
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadBot loads configuration and additionally requires the bot token.
func LoadBot() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateBot(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "todobot")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "todobot")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.conn_max_idle_time", "30s")

	// Redis defaults
	viper.SetDefault("redis.url", "redis://localhost:6379/1")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.filename", "logs/todobot.log")
	viper.SetDefault("logger.max_size_mb", 100)
	viper.SetDefault("logger.max_backups", 30)
	viper.SetDefault("logger.max_age_days", 90)

	// Security defaults
	viper.SetDefault("security.cors_allowed_origins", "*")
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")
	viper.SetDefault("security.api_token_secret", "")
	viper.SetDefault("security.api_token_issuer", "todobot")
	viper.SetDefault("security.api_token_ttl", "5m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Notifier defaults
	viper.SetDefault("notifier.gateway_url", "http://localhost:8081")
	viper.SetDefault("notifier.scan_interval", "15m")
	viper.SetDefault("notifier.reminder_poll_interval", "30s")
	viper.SetDefault("notifier.request_timeout", "10s")
	viper.SetDefault("notifier.reminder_batch_size", 100)

	// Bot defaults
	viper.SetDefault("bot.token", "")
	viper.SetDefault("bot.api_base_url", "http://localhost:8080/api")
	viper.SetDefault("bot.api_timeout", "15s")
	viper.SetDefault("bot.gateway_port", 8081)
	viper.SetDefault("bot.session_ttl", "24h")
	viper.SetDefault("bot.poll_timeout", 60)
	viper.SetDefault("bot.send_rate_per_sec", 25)
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	viper.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	viper.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	viper.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	viper.BindEnv("database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")

	// Redis
	viper.BindEnv("redis.url", "REDIS_URL")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILE")

	// Security
	viper.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("security.api_token_secret", "API_TOKEN_SECRET")
	viper.BindEnv("security.api_token_issuer", "API_TOKEN_ISSUER")
	viper.BindEnv("security.api_token_ttl", "API_TOKEN_TTL")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")
	viper.BindEnv("metrics.port", "METRICS_PORT")

	// Notifier
	viper.BindEnv("notifier.gateway_url", "NOTIFIER_GATEWAY_URL")
	viper.BindEnv("notifier.scan_interval", "NOTIFIER_SCAN_INTERVAL")
	viper.BindEnv("notifier.reminder_poll_interval", "NOTIFIER_REMINDER_POLL_INTERVAL")
	viper.BindEnv("notifier.request_timeout", "NOTIFIER_REQUEST_TIMEOUT")
	viper.BindEnv("notifier.reminder_batch_size", "NOTIFIER_REMINDER_BATCH_SIZE")

	// Bot
	viper.BindEnv("bot.token", "BOT_TOKEN")
	viper.BindEnv("bot.api_base_url", "API_BASE_URL")
	viper.BindEnv("bot.api_timeout", "BOT_API_TIMEOUT")
	viper.BindEnv("bot.gateway_port", "BOT_GATEWAY_PORT")
	viper.BindEnv("bot.session_ttl", "BOT_SESSION_TTL")
	viper.BindEnv("bot.poll_timeout", "BOT_POLL_TIMEOUT")
	viper.BindEnv("bot.send_rate_per_sec", "BOT_SEND_RATE_PER_SEC")
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Bot.GatewayPort <= 0 || cfg.Bot.GatewayPort > 65535 {
		return fmt.Errorf("bot gateway port must be between 1 and 65535")
	}

	if cfg.Redis.URL == "" {
		return fmt.Errorf("redis url is required")
	}

	if cfg.Notifier.ScanInterval <= 0 || cfg.Notifier.ReminderPollInterval <= 0 {
		return fmt.Errorf("notifier intervals must be positive")
	}

	return nil
}

// ValidateBot checks settings only the chat-bot process needs
func (cfg *Config) ValidateBot() error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	if cfg.Bot.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// TokenAuthEnabled reports whether API calls must carry a signed service token
func (cfg *SecurityConfig) TokenAuthEnabled() bool {
	return cfg.APITokenSecret != ""
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
