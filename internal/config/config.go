// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, provider credentials,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "canvas-ai-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GeminiConfig holds the text-generation backend settings.
type GeminiConfig struct {
	APIKey string // GEMINI_API_KEY
	Model  string // GEMINI_MODEL
}

// HuggingFaceConfig holds the image-generation backend settings.
type HuggingFaceConfig struct {
	APIKey  string        // HUGGING_FACE_API_KEY
	BaseURL string        // HUGGING_FACE_BASE_URL
	Model   string        // HUGGING_FACE_MODEL
	Timeout time.Duration // HUGGING_FACE_TIMEOUT
}

// RazorpayConfig holds the payment-gateway settings. KeySecret is also the
// HMAC key used to verify payment signatures.
type RazorpayConfig struct {
	KeyID     string        // RAZORPAY_KEY_ID
	KeySecret string        // RAZORPAY_KEY_SECRET
	BaseURL   string        // RAZORPAY_BASE_URL
	Currency  string        // RAZORPAY_CURRENCY
	Timeout   time.Duration // RAZORPAY_TIMEOUT
}

// S3Config holds the asset-publisher settings.
type S3Config struct {
	Endpoint      string // S3_ENDPOINT (empty for AWS)
	Region        string // S3_REGION
	AccessKey     string // S3_ACCESS_KEY
	SecretKey     string // S3_SECRET_KEY
	Bucket        string // S3_BUCKET
	PublicBaseURL string // S3_PUBLIC_BASE_URL
	UsePathStyle  bool   // S3_USE_PATH_STYLE
	Prefix        string // S3_PREFIX
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes, e.g. "/v1"

	// App
	DBPath    string        // SQLite path
	JWTSecret string        // SECRET_KEY, HS256 signing key
	JWTTTL    time.Duration // token lifetime

	// Cache
	RedisURL string // REDIS_URL (empty disables Redis, in-memory cache is used)

	// Providers
	Gemini      GeminiConfig
	HuggingFace HuggingFaceConfig
	Razorpay    RazorpayConfig
	S3          S3Config

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

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
		Port:              getenv("PORT", "8000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 0), // 0: streaming responses must not be cut off
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/v1")),

		// App
		DBPath:    getenv("DB_PATH", "app.db"),
		JWTSecret: getenv("SECRET_KEY", ""),
		JWTTTL:    getdur("JWT_TTL", 24*time.Hour),

		// Cache
		RedisURL: getenv("REDIS_URL", ""),

		// Providers
		Gemini: GeminiConfig{
			APIKey: getenv("GEMINI_API_KEY", ""),
			Model:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		HuggingFace: HuggingFaceConfig{
			APIKey:  getenv("HUGGING_FACE_API_KEY", ""),
			BaseURL: getenv("HUGGING_FACE_BASE_URL", "https://router.huggingface.co"),
			Model:   getenv("HUGGING_FACE_MODEL", "black-forest-labs/FLUX.1-schnell"),
			Timeout: getdur("HUGGING_FACE_TIMEOUT", 2*time.Minute),
		},
		Razorpay: RazorpayConfig{
			KeyID:     getenv("RAZORPAY_KEY_ID", ""),
			KeySecret: getenv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:   getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			Currency:  getenv("RAZORPAY_CURRENCY", "INR"),
			Timeout:   getdur("RAZORPAY_TIMEOUT", 30*time.Second),
		},
		S3: S3Config{
			Endpoint:      getenv("S3_ENDPOINT", ""),
			Region:        getenv("S3_REGION", "ap-south-1"),
			AccessKey:     getenv("S3_ACCESS_KEY", ""),
			SecretKey:     getenv("S3_SECRET_KEY", ""),
			Bucket:        getenv("S3_BUCKET", ""),
			PublicBaseURL: getenv("S3_PUBLIC_BASE_URL", ""),
			UsePathStyle:  getbool("S3_USE_PATH_STYLE", false),
			Prefix:        getenv("S3_PREFIX", "generated-ai-image"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

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
			ServiceName: getenv("OTEL_SERVICE_NAME", "canvas-ai-backend"),
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

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.WriteTimeout < 0 {
		return cfg, errors.New("WRITE_TIMEOUT must be >= 0 (0 disables it for streaming)")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, errors.New("SECRET_KEY must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return cfg, errors.New("JWT_TTL must be > 0")
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

// MissingProviderKeys lists the external-provider credentials that are not
// configured. The server still starts without them (the corresponding
// endpoints fail with upstream errors); startup logs the gaps loudly.
func (c Config) MissingProviderKeys() []string {
	var missing []string
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.HuggingFace.APIKey == "" {
		missing = append(missing, "HUGGING_FACE_API_KEY")
	}
	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		missing = append(missing, "RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET")
	}
	if c.S3.AccessKey == "" || c.S3.SecretKey == "" || c.S3.Bucket == "" {
		missing = append(missing, "S3_ACCESS_KEY/S3_SECRET_KEY/S3_BUCKET")
	}
	return missing
}

// Development reports whether the server runs in development mode, in which
// error responses may carry internal detail.
func (c Config) Development() bool { return c.GinMode == "debug" }

// ---- helpers (no external deps) ----

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
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
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
