package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the crawl and dedup engine
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Sources    []SourceConfig   `mapstructure:"sources"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address           string `mapstructure:"address"`
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// SourceConfig describes one landing page and the href substrings that
// identify article links on it.
type SourceConfig struct {
	URL      string   `mapstructure:"url"`
	Patterns []string `mapstructure:"patterns"`
	Render   bool     `mapstructure:"render"` // fetch through headless browser
}

func (s SourceConfig) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("sources[].url is required")
	}
	if len(s.Patterns) == 0 {
		return fmt.Errorf("sources[].patterns required for %s", s.URL)
	}
	return nil
}

// CrawlConfig bounds a single crawl run.
type CrawlConfig struct {
	MaxPerSource int           `mapstructure:"max_per_source"`
	MaxTotal     int           `mapstructure:"max_total"` // 0 = unbounded
	MaxWorkers   int           `mapstructure:"max_workers"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	Schedule     string        `mapstructure:"schedule"` // cron spec, empty = manual only
	MinTextLen   int           `mapstructure:"min_text_len"`
}

// Normalize applies defaults for unset crawl values.
func (c CrawlConfig) Normalize() CrawlConfig {
	if c.MaxPerSource <= 0 {
		c.MaxPerSource = 3
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 5
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = 500 * time.Millisecond
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.MinTextLen <= 0 {
		c.MinTextLen = 200
	}
	return c
}

// SimilarityConfig carries the per-signal weights and gate thresholds of
// the duplicate matcher. Weights are renormalized at scoring time when a
// signal is unavailable, so they only need to sum to 1 here.
type SimilarityConfig struct {
	SemanticWeight float64 `mapstructure:"semantic_weight"`
	SummaryWeight  float64 `mapstructure:"summary_weight"`
	KeywordWeight  float64 `mapstructure:"keyword_weight"`
	BodyWeight     float64 `mapstructure:"body_weight"`
	TagWeight      float64 `mapstructure:"tag_weight"`

	SemanticThreshold float64 `mapstructure:"semantic_threshold"`
	SummaryThreshold  float64 `mapstructure:"summary_threshold"`
	BodyThreshold     float64 `mapstructure:"body_threshold"`
	KeywordThreshold  float64 `mapstructure:"keyword_threshold"`
	MinKeywordOverlap int     `mapstructure:"min_keyword_overlap"`
	CombinedThreshold float64 `mapstructure:"combined_threshold"`

	MaxKeywords int `mapstructure:"max_keywords"`
	MaxBodyLen  int `mapstructure:"max_body_len"`
}

// Normalize applies the matcher defaults.
func (s SimilarityConfig) Normalize() SimilarityConfig {
	if s.SemanticWeight == 0 && s.SummaryWeight == 0 && s.KeywordWeight == 0 && s.BodyWeight == 0 && s.TagWeight == 0 {
		s.SemanticWeight = 0.4
		s.SummaryWeight = 0.25
		s.KeywordWeight = 0.2
		s.BodyWeight = 0.1
		s.TagWeight = 0.05
	}
	if s.SemanticThreshold == 0 {
		s.SemanticThreshold = 0.82
	}
	if s.SummaryThreshold == 0 {
		s.SummaryThreshold = 0.6
	}
	if s.BodyThreshold == 0 {
		s.BodyThreshold = 0.5
	}
	if s.KeywordThreshold == 0 {
		s.KeywordThreshold = 0.35
	}
	if s.MinKeywordOverlap == 0 {
		s.MinKeywordOverlap = 3
	}
	if s.CombinedThreshold == 0 {
		s.CombinedThreshold = 0.7
	}
	if s.MaxKeywords == 0 {
		s.MaxKeywords = 30
	}
	if s.MaxBodyLen == 0 {
		s.MaxBodyLen = 4000
	}
	return s
}

func (s SimilarityConfig) Validate() error {
	sum := s.SemanticWeight + s.SummaryWeight + s.KeywordWeight + s.BodyWeight + s.TagWeight
	if sum <= 0 {
		return fmt.Errorf("similarity weights must sum to a positive value")
	}
	return nil
}

// LLMConfig contains the content generator and embedding provider settings
type LLMConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Normalize applies provider defaults.
func (l LLMConfig) Normalize() LLMConfig {
	if l.BaseURL == "" {
		l.BaseURL = "https://api.openai.com/v1"
	}
	if l.CompletionModel == "" {
		l.CompletionModel = "gpt-4o-mini"
	}
	if l.EmbeddingModel == "" {
		l.EmbeddingModel = "text-embedding-3-small"
	}
	if l.Timeout <= 0 {
		l.Timeout = 60 * time.Second
	}
	if l.MaxTokens <= 0 {
		l.MaxTokens = 1200
	}
	return l
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds the Postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings. Redis is optional; when
// host is empty the seen-URL cache and the crawl run lock are disabled.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("SPRAVODAJ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	config.Crawl = config.Crawl.Normalize()
	config.Similarity = config.Similarity.Normalize()
	config.LLM = config.LLM.Normalize()

	for _, src := range config.Sources {
		if err := src.Validate(); err != nil {
			return nil, err
		}
	}
	if err := config.Similarity.Validate(); err != nil {
		return nil, err
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		return nil, err
	}
	if err := config.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
