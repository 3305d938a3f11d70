package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "https://store.example.com")
	t.Setenv("IDP_API_KEY", "test-api-key")
}

func TestLoad_RequiredVarsPresent(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}
	if cfg.APIBaseURL != "https://store.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.IdpAPIKey != "test-api-key" {
		t.Errorf("IdpAPIKey = %q", cfg.IdpAPIKey)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("IDP_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("必須環境変数未設定時はエラーを返すべき")
	}
	// 欠落変数は1つのエラーにまとめて報告される
	if !strings.Contains(err.Error(), "API_BASE_URL") || !strings.Contains(err.Error(), "IDP_API_KEY") {
		t.Errorf("エラーメッセージに欠落変数名が含まれていない: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if cfg.MaxResponseSize != 5242880 {
		t.Errorf("MaxResponseSize = %d, want 5242880", cfg.MaxResponseSize)
	}
	if cfg.OutboundRate != 10 {
		t.Errorf("OutboundRate = %v, want 10", cfg.OutboundRate)
	}
	if cfg.OutboundBurst != 20 {
		t.Errorf("OutboundBurst = %d, want 20", cfg.OutboundBurst)
	}
	if cfg.BreakerMaxFailures != 5 {
		t.Errorf("BreakerMaxFailures = %d, want 5", cfg.BreakerMaxFailures)
	}
	if cfg.StubPort != "8080" {
		t.Errorf("StubPort = %q, want 8080", cfg.StubPort)
	}
	if cfg.MetricsPort != "" {
		t.Errorf("MetricsPort = %q, want empty", cfg.MetricsPort)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("OUTBOUND_RATE", "2.5")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "1m")
	t.Setenv("STUB_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v, want 3s", cfg.HTTPTimeout)
	}
	if cfg.OutboundRate != 2.5 {
		t.Errorf("OutboundRate = %v, want 2.5", cfg.OutboundRate)
	}
	if cfg.BreakerOpenTimeout != time.Minute {
		t.Errorf("BreakerOpenTimeout = %v, want 1m", cfg.BreakerOpenTimeout)
	}
	if cfg.StubPort != "9090" {
		t.Errorf("StubPort = %q, want 9090", cfg.StubPort)
	}
}

func TestLoad_InvalidOptionalValueFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("OUTBOUND_BURST", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("不正値はデフォルトへフォールバックすべき: %v", cfg.HTTPTimeout)
	}
	if cfg.OutboundBurst != 20 {
		t.Errorf("不正値はデフォルトへフォールバックすべき: %d", cfg.OutboundBurst)
	}
}
