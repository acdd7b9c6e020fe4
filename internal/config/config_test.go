package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the env vars Load refuses to run without.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.APIBasePath != "/v1" {
		t.Fatalf("APIBasePath = %q, want /v1", cfg.APIBasePath)
	}
	if cfg.GinMode != "release" || cfg.Development() {
		t.Fatalf("default mode must be release / non-development")
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.Razorpay.Currency != "INR" {
		t.Fatalf("Razorpay.Currency = %q", cfg.Razorpay.Currency)
	}
	if cfg.WriteTimeout != 0 {
		t.Fatalf("WriteTimeout default must stay 0 for streaming, got %v", cfg.WriteTimeout)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("JWTTTL = %v", cfg.JWTTTL)
	}
}

func TestLoad_MissingSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without SECRET_KEY")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("expected LOG_LEVEL validation error, got %v", err)
	}
}

func TestLoad_NormalizesWarning(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "warning")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_BasePathNormalization(t *testing.T) {
	setRequired(t)
	tests := map[string]string{
		"v2":      "/v2",
		"/v2/":    "/v2",
		"":        "/v1", // empty falls back to default
		"/api/v1": "/api/v1",
	}
	for in, want := range tests {
		t.Setenv("API_BASE_PATH", in)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%q): %v", in, err)
		}
		if cfg.APIBasePath != want {
			t.Fatalf("APIBasePath(%q) = %q, want %q", in, cfg.APIBasePath, want)
		}
	}
}

func TestLoad_InvalidGinModeCoerced(t *testing.T) {
	setRequired(t)
	t.Setenv("GIN_MODE", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release", cfg.GinMode)
	}
}

func TestMissingProviderKeys(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	missing := strings.Join(cfg.MissingProviderKeys(), ",")
	for _, want := range []string{"GEMINI_API_KEY", "HUGGING_FACE_API_KEY", "RAZORPAY", "S3"} {
		if !strings.Contains(missing, want) {
			t.Fatalf("MissingProviderKeys() = %q, want it to mention %s", missing, want)
		}
	}

	t.Setenv("GEMINI_API_KEY", "k")
	cfg, _ = Load()
	if strings.Contains(strings.Join(cfg.MissingProviderKeys(), ","), "GEMINI") {
		t.Fatalf("GEMINI_API_KEY set but still reported missing")
	}
}

func TestLoad_RateLimitValidation(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_BURST", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected RATE_BURST validation error")
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	defer func() {
		if recover() == nil {
			t.Fatalf("MustLoad must panic on invalid config")
		}
	}()
	_ = MustLoad()
}
