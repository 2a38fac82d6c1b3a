// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the storage backend, the LLM provider, document ingestion limits,
// rate limiting, caching, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/rag-chat-backend/internal/sysutil"
)

// Storage drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LLM providers accepted by LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Chat delivery modes accepted by CHAT_MODE.
const (
	ChatModeStreaming = "streaming"
	ChatModeBuffered  = "buffered"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "rag-chat-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects and parameterizes the document store backend.
type StoreConfig struct {
	Driver      string // sqlite|postgres
	DBPath      string // SQLite file path
	DatabaseURL string // Postgres DSN
}

// LLMConfig holds credentials and model names for the hosted model APIs.
// An empty key for the selected provider is not a load error; chat requests
// fail individually instead.
type LLMConfig struct {
	Provider       string // gemini|openai
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	TokenizerModel string // model name used for prompt token accounting
	MaxRetries     int    // re-sends of a failed model request (0 = none)
}

// APIKey returns the credential of the selected provider.
func (l LLMConfig) APIKey() string {
	if l.Provider == ProviderOpenAI {
		return l.OpenAIAPIKey
	}
	return l.GeminiAPIKey
}

// RetrievalConfig bounds chunking and chunk selection.
type RetrievalConfig struct {
	ChunkSize int // words per chunk
	MaxChunks int // upper bound handed to the scorer
}

// UploadConfig limits and routes document ingestion.
type UploadConfig struct {
	MaxBytes       int64         // multipart body cap on upload routes
	TmpDir         string        // where uploads are staged ("" = os.TempDir)
	PDFPageTimeout time.Duration // per-page text extraction budget
	OfficeFormats  bool          // accept docx/odt/rtf in addition to pdf/txt
}

// CacheConfig configures the optional Redis read-through cache.
type CacheConfig struct {
	RedisURL  string        // empty disables caching
	PromptTTL time.Duration // system prompt cache lifetime
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // long enough for streamed answers
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	Store       StoreConfig
	LLM         LLMConfig
	Retrieval   RetrievalConfig
	Upload      UploadConfig
	Cache       CacheConfig
	ChatMode    string // streaming|buffered
	SeedOnStart bool   // insert default business documents when none exist

	// Rate limiting
	RateRPS      float64 // tokens per second (>= 0)
	RateBurst    int     // bucket size (>= 1)
	RatePerRoute bool    // separate bucket per route and client IP

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "3000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 5*time.Minute),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		Store: StoreConfig{
			Driver:      strings.ToLower(getenv("STORE_DRIVER", DriverSQLite)),
			DBPath:      getenv("DB_PATH", "chatbot.db"),
			DatabaseURL: getenv("DATABASE_URL", ""),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getenv("LLM_PROVIDER", ProviderGemini)),
			GeminiAPIKey:   sysutil.FirstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
			GeminiModel:    getenv("GEMINI_MODEL", "gemini-2.0-flash"),
			OpenAIAPIKey:   getenv("OPENAI_API_KEY", ""),
			OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:  getenv("OPENAI_BASE_URL", ""),
			TokenizerModel: getenv("TOKENIZER_MODEL", "gpt-3.5-turbo"),
			MaxRetries:     getint("LLM_MAX_RETRIES", 0),
		},
		Retrieval: RetrievalConfig{
			ChunkSize: getint("CHUNK_SIZE", 500),
			MaxChunks: getint("MAX_CHUNKS", 10),
		},
		Upload: UploadConfig{
			MaxBytes:       int64(getint("MAX_UPLOAD_BYTES", 10<<20)),
			TmpDir:         getenv("UPLOAD_TMP_DIR", ""),
			PDFPageTimeout: getdur("PDF_PAGE_TIMEOUT", 10*time.Second),
			OfficeFormats:  getbool("EXTRACT_OFFICE_FORMATS", false),
		},
		Cache: CacheConfig{
			RedisURL:  getenv("REDIS_URL", ""),
			PromptTTL: getdur("PROMPT_CACHE_TTL", 5*time.Minute),
		},
		ChatMode:    strings.ToLower(getenv("CHAT_MODE", ChatModeStreaming)),
		SeedOnStart: getbool("SEED_ON_START", true),

		// Rate limiting
		RateRPS:      getfloat("RATE_RPS", 5.0),
		RateBurst:    getint("RATE_BURST", 10),
		RatePerRoute: getbool("RATE_PER_ROUTE", false),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "rag-chat-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	switch cfg.Store.Driver {
	case "postgresql", "pg", "pgx":
		cfg.Store.Driver = DriverPostgres
	case "sqlite3":
		cfg.Store.Driver = DriverSQLite
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("STORE_DRIVER must be one of: sqlite, postgres")
	}
	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: gemini, openai")
	}
	switch cfg.ChatMode {
	case ChatModeStreaming, ChatModeBuffered:
	default:
		return cfg, errors.New("CHAT_MODE must be one of: streaming, buffered")
	}
	if cfg.Retrieval.ChunkSize < 1 {
		return cfg, errors.New("CHUNK_SIZE must be >= 1")
	}
	if cfg.Retrieval.MaxChunks < 1 {
		return cfg, errors.New("MAX_CHUNKS must be >= 1")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return cfg, errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.Upload.PDFPageTimeout <= 0 {
		return cfg, errors.New("PDF_PAGE_TIMEOUT must be > 0")
	}
	if cfg.Cache.PromptTTL <= 0 {
		return cfg, errors.New("PROMPT_CACHE_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
