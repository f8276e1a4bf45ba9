package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Policy defaults. Both are deployment tunables under policy.*.
const (
	DefaultDebounceWindow = 5 * time.Minute
	DefaultStaleAfterDays = 30
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`
	Policy PolicyConfig `mapstructure:"policy"`
	Feeds  FeedsConfig  `mapstructure:"feeds"`
	Digest DigestConfig `mapstructure:"digest"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

type AppConfig struct {
	Env         string `mapstructure:"env"`
	DefaultUser string `mapstructure:"default_user"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Reconcile         string `mapstructure:"reconcile"`
	Digest            string `mapstructure:"digest"`
	PredictionScoring string `mapstructure:"prediction_scoring"`
	DataPointPrune    string `mapstructure:"data_point_prune"`
}

type PolicyConfig struct {
	DebounceWindow  time.Duration `mapstructure:"debounce_window"`
	StaleAfterDays  int           `mapstructure:"stale_after_days"`
	MinEvalInterval time.Duration `mapstructure:"min_eval_interval"`
	FeedMaxAge      time.Duration `mapstructure:"feed_max_age"`
	DataPointMaxAge time.Duration `mapstructure:"data_point_max_age"`
}

type FeedsConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type DigestConfig struct {
	DefaultDays int `mapstructure:"default_days"`
	MaxDays     int `mapstructure:"max_days"`
	MinAIChars  int `mapstructure:"min_ai_chars"`
}

type LLMConfig struct {
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// APIKey reads the key from the configured environment variable.
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

// LoadDotEnv loads .env style files when present. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// PathFromEnv returns DOMINO_CONFIG (default config/config.yaml) and whether
// DOMINO_ENV_ONLY asks to skip the file.
func PathFromEnv() (string, bool) {
	path := os.Getenv("DOMINO_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("DOMINO_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	return path, envOnly
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOMINO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.default_user", "local")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.reconcile", "@every 30s")
	v.SetDefault("cron.digest", "0 0 7 * * MON")
	v.SetDefault("cron.prediction_scoring", "@every 1h")
	v.SetDefault("cron.data_point_prune", "@every 24h")
	v.SetDefault("policy.debounce_window", DefaultDebounceWindow.String())
	v.SetDefault("policy.stale_after_days", DefaultStaleAfterDays)
	v.SetDefault("policy.min_eval_interval", "30s")
	v.SetDefault("policy.feed_max_age", "6h")
	v.SetDefault("policy.data_point_max_age", "17520h")
	v.SetDefault("feeds.redis_url", "")
	v.SetDefault("feeds.snapshot_ttl", "24h")
	v.SetDefault("digest.default_days", 7)
	v.SetDefault("digest.max_days", 90)
	v.SetDefault("digest.min_ai_chars", 50)
	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key_env", "")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "domino.transitions")
	v.SetDefault("kafka.client_id", "dominod")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case "postgres", "sqlite":
	default:
		return errors.New("db.driver must be postgres or sqlite")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", "none", "anthropic", "openai":
	default:
		return errors.New("llm.provider must be none, anthropic or openai")
	}
	if c.Digest.MaxDays > 0 && c.Digest.DefaultDays > c.Digest.MaxDays {
		return errors.New("digest.default_days exceeds digest.max_days")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	return nil
}
