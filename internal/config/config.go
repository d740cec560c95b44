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
	S3        S3Config
	Log       LogConfig
	LLM       LLMConfig
	OCR       OCRConfig
	Normalize NormalizeConfig
	Pipeline  PipelineConfig
	Matching  MatchingConfig
	Queue     QueueConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
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

// S3Config holds object storage settings for staged images and archives.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	ArchiveBucket string `mapstructure:"archive_bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Provider           string `mapstructure:"provider"`
	APIKey             string `mapstructure:"api_key"`
	DefaultModel       string `mapstructure:"default_model"`
	TimeoutSecs        int    `mapstructure:"timeout_secs"`
	Scope              string `mapstructure:"scope"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// LLMConfig holds language model settings with multi-provider fallback.
type LLMConfig struct {
	// Legacy flat fields
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// PrimaryConfig returns the primary provider config, falling back to legacy flat fields.
func (l *LLMConfig) PrimaryConfig() *ProviderConfig {
	if l.Primary.Provider != "" {
		return &l.Primary
	}
	return &ProviderConfig{
		Provider:     l.Provider,
		APIKey:       l.APIKey,
		DefaultModel: l.DefaultModel,
		TimeoutSecs:  l.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *ProviderConfig {
	if l.Secondary.Provider != "" {
		return &l.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (l *LLMConfig) TertiaryConfig() *ProviderConfig {
	if l.Tertiary.Provider != "" {
		return &l.Tertiary
	}
	return nil
}

// Providers returns the configured providers in fallback order.
func (l *LLMConfig) Providers() []*ProviderConfig {
	out := []*ProviderConfig{l.PrimaryConfig()}
	if s := l.SecondaryConfig(); s != nil {
		out = append(out, s)
	}
	if t := l.TertiaryConfig(); t != nil {
		out = append(out, t)
	}
	return out
}

// OCRConfig holds Tesseract settings.
type OCRConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Languages   []string `mapstructure:"languages"`
	Concurrency int      `mapstructure:"concurrency"`
}

// NormalizeConfig holds image normalization settings.
type NormalizeConfig struct {
	PDFDPI    float64 `mapstructure:"pdf_dpi"`
	MaxPages  int     `mapstructure:"max_pages"`
	RenderPDF bool    `mapstructure:"render_pdf"`
}

// PipelineConfig holds orchestrator retry, timeout and concurrency settings.
type PipelineConfig struct {
	MaxConcurrency      int           `mapstructure:"max_concurrency"`
	MaxAttempts         int           `mapstructure:"max_attempts"`
	InitialBackoff      time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff          time.Duration `mapstructure:"max_backoff"`
	BackoffMultiplier   float64       `mapstructure:"backoff_multiplier"`
	ClassifyTimeout     time.Duration `mapstructure:"classify_timeout"`
	ExtractTimeout      time.Duration `mapstructure:"extract_timeout"`
	OcrTimeout          time.Duration `mapstructure:"ocr_timeout"`
	BreakerEnabled      bool          `mapstructure:"breaker_enabled"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
}

// MatchingConfig holds the matching policy constants.
type MatchingConfig struct {
	MonetaryThreshold float64 `mapstructure:"monetary_threshold"`
	HighWeight        float64 `mapstructure:"high_weight"`
	MediumWeight      float64 `mapstructure:"medium_weight"`
	LowWeight         float64 `mapstructure:"low_weight"`
	HighPenalty       float64 `mapstructure:"high_penalty"`
	MediumPenalty     float64 `mapstructure:"medium_penalty"`
	LowPenalty        float64 `mapstructure:"low_penalty"`
	OcrBoost          float64 `mapstructure:"ocr_boost"`
	FieldSetsFile     string  `mapstructure:"field_sets_file"`
}

// QueueConfig holds NATS settings for the request/result bus.
type QueueConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	RequestSubject string `mapstructure:"request_subject"`
	ResultSubject  string `mapstructure:"result_subject"`
	Group          string `mapstructure:"group"`
}

// EmailConfig holds alert email settings.
type EmailConfig struct {
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	FromAddress   string `mapstructure:"from_address"`
	FromName      string `mapstructure:"from_name"`
	NotifyAddress string `mapstructure:"notify_address"`
}

// Load reads configuration from environment variables with the ERPVERIFY_ prefix.
func Load() (*Config, error) {
	return load("")
}

// LoadFile reads configuration from a file, with environment variables
// taking precedence.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ERPVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if ERPVERIFY_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ERPVERIFY_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  v.GetStringSlice("server.cors_origins"),
		MaxBatchSize: v.GetInt("server.max_batch_size"),
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
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		ArchiveBucket: v.GetString("s3.archive_bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.LLM = LLMConfig{
		Provider:          v.GetString("llm.provider"),
		APIKey:            v.GetString("llm.api_key"),
		DefaultModel:      v.GetString("llm.default_model"),
		TimeoutSecs:       v.GetInt("llm.timeout_secs"),
		Primary:           providerConfig(v, "llm.primary"),
		Secondary:         providerConfig(v, "llm.secondary"),
		Tertiary:          providerConfig(v, "llm.tertiary"),
		RequestsPerSecond: v.GetFloat64("llm.requests_per_second"),
		Burst:             v.GetInt("llm.burst"),
	}
	cfg.OCR = OCRConfig{
		Enabled:     v.GetBool("ocr.enabled"),
		Languages:   splitList(v.GetString("ocr.languages")),
		Concurrency: v.GetInt("ocr.concurrency"),
	}
	cfg.Normalize = NormalizeConfig{
		PDFDPI:    v.GetFloat64("normalize.pdf_dpi"),
		MaxPages:  v.GetInt("normalize.max_pages"),
		RenderPDF: v.GetBool("normalize.render_pdf"),
	}
	cfg.Pipeline = PipelineConfig{
		MaxConcurrency:      v.GetInt("pipeline.max_concurrency"),
		MaxAttempts:         v.GetInt("pipeline.max_attempts"),
		InitialBackoff:      v.GetDuration("pipeline.initial_backoff"),
		MaxBackoff:          v.GetDuration("pipeline.max_backoff"),
		BackoffMultiplier:   v.GetFloat64("pipeline.backoff_multiplier"),
		ClassifyTimeout:     v.GetDuration("pipeline.classify_timeout"),
		ExtractTimeout:      v.GetDuration("pipeline.extract_timeout"),
		OcrTimeout:          v.GetDuration("pipeline.ocr_timeout"),
		BreakerEnabled:      v.GetBool("pipeline.breaker_enabled"),
		BreakerMinRequests:  v.GetUint32("pipeline.breaker_min_requests"),
		BreakerFailureRatio: v.GetFloat64("pipeline.breaker_failure_ratio"),
		BreakerOpenTimeout:  v.GetDuration("pipeline.breaker_open_timeout"),
	}
	cfg.Matching = MatchingConfig{
		MonetaryThreshold: v.GetFloat64("matching.monetary_threshold"),
		HighWeight:        v.GetFloat64("matching.high_weight"),
		MediumWeight:      v.GetFloat64("matching.medium_weight"),
		LowWeight:         v.GetFloat64("matching.low_weight"),
		HighPenalty:       v.GetFloat64("matching.high_penalty"),
		MediumPenalty:     v.GetFloat64("matching.medium_penalty"),
		LowPenalty:        v.GetFloat64("matching.low_penalty"),
		OcrBoost:          v.GetFloat64("matching.ocr_boost"),
		FieldSetsFile:     v.GetString("matching.field_sets_file"),
	}
	cfg.Queue = QueueConfig{
		Enabled:        v.GetBool("queue.enabled"),
		URL:            v.GetString("queue.url"),
		RequestSubject: v.GetString("queue.request_subject"),
		ResultSubject:  v.GetString("queue.result_subject"),
		Group:          v.GetString("queue.group"),
	}
	cfg.Email = EmailConfig{
		Provider:      v.GetString("email.provider"),
		Region:        v.GetString("email.region"),
		FromAddress:   v.GetString("email.from_address"),
		FromName:      v.GetString("email.from_name"),
		NotifyAddress: v.GetString("email.notify_address"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pipeline.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline.max_concurrency must be positive, got %d", c.Pipeline.MaxConcurrency)
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline.max_attempts must be positive, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Matching.MonetaryThreshold <= 0 || c.Matching.MonetaryThreshold >= 1 {
		return fmt.Errorf("matching.monetary_threshold must be in (0,1), got %v", c.Matching.MonetaryThreshold)
	}
	for name, p := range map[string]float64{
		"high_penalty":   c.Matching.HighPenalty,
		"medium_penalty": c.Matching.MediumPenalty,
		"low_penalty":    c.Matching.LowPenalty,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("matching.%s must be in [0,1], got %v", name, p)
		}
	}
	return nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:           v.GetString(prefix + ".provider"),
		APIKey:             v.GetString(prefix + ".api_key"),
		DefaultModel:       v.GetString(prefix + ".default_model"),
		TimeoutSecs:        v.GetInt(prefix + ".timeout_secs"),
		Scope:              v.GetString(prefix + ".scope"),
		InsecureSkipVerify: v.GetBool(prefix + ".insecure_skip_verify"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_batch_size", 20)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "erpverify")
	v.SetDefault("db.password", "erpverify_secret")
	v.SetDefault("db.name", "erpverify_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "erpverify-staging")
	v.SetDefault("s3.archive_bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// LLM defaults (legacy flat)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.default_model", "gemini-2.0-flash-001")
	v.SetDefault("llm.timeout_secs", 120)
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("llm."+tier+".provider", "")
		v.SetDefault("llm."+tier+".api_key", "")
		v.SetDefault("llm."+tier+".default_model", "")
		v.SetDefault("llm."+tier+".timeout_secs", 120)
		v.SetDefault("llm."+tier+".scope", "")
		v.SetDefault("llm."+tier+".insecure_skip_verify", false)
	}
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.burst", 4)

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.concurrency", 2)

	// Normalizer defaults
	v.SetDefault("normalize.pdf_dpi", 300.0)
	v.SetDefault("normalize.max_pages", 20)
	v.SetDefault("normalize.render_pdf", true)

	// Pipeline defaults
	v.SetDefault("pipeline.max_concurrency", 4)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.initial_backoff", "500ms")
	v.SetDefault("pipeline.max_backoff", "8s")
	v.SetDefault("pipeline.backoff_multiplier", 2.0)
	v.SetDefault("pipeline.classify_timeout", "30s")
	v.SetDefault("pipeline.extract_timeout", "120s")
	v.SetDefault("pipeline.ocr_timeout", "30s")
	v.SetDefault("pipeline.breaker_enabled", true)
	v.SetDefault("pipeline.breaker_min_requests", 10)
	v.SetDefault("pipeline.breaker_failure_ratio", 0.5)
	v.SetDefault("pipeline.breaker_open_timeout", "30s")

	// Matching defaults
	v.SetDefault("matching.monetary_threshold", 0.01)
	v.SetDefault("matching.high_weight", 3.0)
	v.SetDefault("matching.medium_weight", 2.0)
	v.SetDefault("matching.low_weight", 1.0)
	v.SetDefault("matching.high_penalty", 1.0)
	v.SetDefault("matching.medium_penalty", 0.5)
	v.SetDefault("matching.low_penalty", 0.1)
	v.SetDefault("matching.ocr_boost", 0.05)
	v.SetDefault("matching.field_sets_file", "")

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.request_subject", "verification.requests")
	v.SetDefault("queue.result_subject", "verification.results")
	v.SetDefault("queue.group", "verifiers")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-west-1")
	v.SetDefault("email.from_address", "noreply@erpverify.local")
	v.SetDefault("email.from_name", "ERP Verification")
	v.SetDefault("email.notify_address", "")
}

// Bind environment variables explicitly for nested keys
var envBindings = map[string]string{
	"server.port":                       "ERPVERIFY_SERVER_PORT",
	"server.read_timeout":               "ERPVERIFY_SERVER_READ_TIMEOUT",
	"server.write_timeout":              "ERPVERIFY_SERVER_WRITE_TIMEOUT",
	"server.environment":                "ERPVERIFY_SERVER_ENVIRONMENT",
	"server.cors_origins":               "ERPVERIFY_SERVER_CORS_ORIGINS",
	"server.max_batch_size":             "ERPVERIFY_SERVER_MAX_BATCH_SIZE",
	"db.host":                           "ERPVERIFY_DB_HOST",
	"db.port":                           "ERPVERIFY_DB_PORT",
	"db.user":                           "ERPVERIFY_DB_USER",
	"db.password":                       "ERPVERIFY_DB_PASSWORD",
	"db.name":                           "ERPVERIFY_DB_NAME",
	"db.sslmode":                        "ERPVERIFY_DB_SSLMODE",
	"db.max_open":                       "ERPVERIFY_DB_MAX_OPEN",
	"db.max_idle":                       "ERPVERIFY_DB_MAX_IDLE",
	"s3.region":                         "ERPVERIFY_S3_REGION",
	"s3.bucket":                         "ERPVERIFY_S3_BUCKET",
	"s3.archive_bucket":                 "ERPVERIFY_S3_ARCHIVE_BUCKET",
	"s3.endpoint":                       "ERPVERIFY_S3_ENDPOINT",
	"s3.access_key":                     "ERPVERIFY_S3_ACCESS_KEY",
	"s3.secret_key":                     "ERPVERIFY_S3_SECRET_KEY",
	"log.level":                         "ERPVERIFY_LOG_LEVEL",
	"log.format":                        "ERPVERIFY_LOG_FORMAT",
	"llm.provider":                      "ERPVERIFY_LLM_PROVIDER",
	"llm.api_key":                       "ERPVERIFY_LLM_API_KEY",
	"llm.default_model":                 "ERPVERIFY_LLM_DEFAULT_MODEL",
	"llm.timeout_secs":                  "ERPVERIFY_LLM_TIMEOUT_SECS",
	"llm.primary.provider":              "ERPVERIFY_LLM_PRIMARY_PROVIDER",
	"llm.primary.api_key":               "ERPVERIFY_LLM_PRIMARY_API_KEY",
	"llm.primary.default_model":         "ERPVERIFY_LLM_PRIMARY_DEFAULT_MODEL",
	"llm.primary.timeout_secs":          "ERPVERIFY_LLM_PRIMARY_TIMEOUT_SECS",
	"llm.secondary.provider":            "ERPVERIFY_LLM_SECONDARY_PROVIDER",
	"llm.secondary.api_key":             "ERPVERIFY_LLM_SECONDARY_API_KEY",
	"llm.secondary.default_model":       "ERPVERIFY_LLM_SECONDARY_DEFAULT_MODEL",
	"llm.secondary.timeout_secs":        "ERPVERIFY_LLM_SECONDARY_TIMEOUT_SECS",
	"llm.tertiary.provider":             "ERPVERIFY_LLM_TERTIARY_PROVIDER",
	"llm.tertiary.api_key":              "ERPVERIFY_LLM_TERTIARY_API_KEY",
	"llm.tertiary.default_model":        "ERPVERIFY_LLM_TERTIARY_DEFAULT_MODEL",
	"llm.tertiary.timeout_secs":         "ERPVERIFY_LLM_TERTIARY_TIMEOUT_SECS",
	"llm.tertiary.scope":                "ERPVERIFY_LLM_TERTIARY_SCOPE",
	"llm.requests_per_second":           "ERPVERIFY_LLM_REQUESTS_PER_SECOND",
	"llm.burst":                         "ERPVERIFY_LLM_BURST",
	"ocr.enabled":                       "ERPVERIFY_OCR_ENABLED",
	"ocr.languages":                     "ERPVERIFY_OCR_LANGUAGES",
	"ocr.concurrency":                   "ERPVERIFY_OCR_CONCURRENCY",
	"normalize.pdf_dpi":                 "ERPVERIFY_NORMALIZE_PDF_DPI",
	"normalize.max_pages":               "ERPVERIFY_NORMALIZE_MAX_PAGES",
	"normalize.render_pdf":              "ERPVERIFY_NORMALIZE_RENDER_PDF",
	"pipeline.max_concurrency":          "ERPVERIFY_PIPELINE_MAX_CONCURRENCY",
	"pipeline.max_attempts":             "ERPVERIFY_PIPELINE_MAX_ATTEMPTS",
	"pipeline.initial_backoff":          "ERPVERIFY_PIPELINE_INITIAL_BACKOFF",
	"pipeline.max_backoff":              "ERPVERIFY_PIPELINE_MAX_BACKOFF",
	"pipeline.backoff_multiplier":       "ERPVERIFY_PIPELINE_BACKOFF_MULTIPLIER",
	"pipeline.classify_timeout":         "ERPVERIFY_PIPELINE_CLASSIFY_TIMEOUT",
	"pipeline.extract_timeout":          "ERPVERIFY_PIPELINE_EXTRACT_TIMEOUT",
	"pipeline.ocr_timeout":              "ERPVERIFY_PIPELINE_OCR_TIMEOUT",
	"pipeline.breaker_enabled":          "ERPVERIFY_PIPELINE_BREAKER_ENABLED",
	"pipeline.breaker_min_requests":     "ERPVERIFY_PIPELINE_BREAKER_MIN_REQUESTS",
	"pipeline.breaker_failure_ratio":    "ERPVERIFY_PIPELINE_BREAKER_FAILURE_RATIO",
	"pipeline.breaker_open_timeout":     "ERPVERIFY_PIPELINE_BREAKER_OPEN_TIMEOUT",
	"matching.monetary_threshold":       "ERPVERIFY_MATCHING_MONETARY_THRESHOLD",
	"matching.high_weight":              "ERPVERIFY_MATCHING_HIGH_WEIGHT",
	"matching.medium_weight":            "ERPVERIFY_MATCHING_MEDIUM_WEIGHT",
	"matching.low_weight":               "ERPVERIFY_MATCHING_LOW_WEIGHT",
	"matching.high_penalty":             "ERPVERIFY_MATCHING_HIGH_PENALTY",
	"matching.medium_penalty":           "ERPVERIFY_MATCHING_MEDIUM_PENALTY",
	"matching.low_penalty":              "ERPVERIFY_MATCHING_LOW_PENALTY",
	"matching.ocr_boost":                "ERPVERIFY_MATCHING_OCR_BOOST",
	"matching.field_sets_file":          "ERPVERIFY_MATCHING_FIELD_SETS_FILE",
	"queue.enabled":                     "ERPVERIFY_QUEUE_ENABLED",
	"queue.url":                         "ERPVERIFY_QUEUE_URL",
	"queue.request_subject":             "ERPVERIFY_QUEUE_REQUEST_SUBJECT",
	"queue.result_subject":              "ERPVERIFY_QUEUE_RESULT_SUBJECT",
	"queue.group":                       "ERPVERIFY_QUEUE_GROUP",
	"email.provider":                    "ERPVERIFY_EMAIL_PROVIDER",
	"email.region":                      "ERPVERIFY_EMAIL_REGION",
	"email.from_address":                "ERPVERIFY_EMAIL_FROM_ADDRESS",
	"email.from_name":                   "ERPVERIFY_EMAIL_FROM_NAME",
	"email.notify_address":              "ERPVERIFY_EMAIL_NOTIFY_ADDRESS",
	"llm.tertiary.insecure_skip_verify": "ERPVERIFY_LLM_TERTIARY_INSECURE_SKIP_VERIFY",
}
