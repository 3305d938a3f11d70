package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Remote store
	APIBaseURL string

	// Identity provider
	IdpAPIKey          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Transport
	HTTPTimeout     time.Duration
	MaxResponseSize int64
	OutboundRate    float64 // 外向きAPI呼び出しのレート（req/sec）
	OutboundBurst   int

	// Circuit breaker
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Stub server
	StubPort string

	// Metrics
	MetricsPort string // 空の場合はメトリクスエンドポイントを起動しない
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}

	cfg.IdpAPIKey = os.Getenv("IDP_API_KEY")
	if cfg.IdpAPIKey == "" {
		missing = append(missing, "IDP_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	// Googleフェデレーテッドサインインは設定がある場合のみ有効になる。
	cfg.GoogleClientID = getEnvString("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = getEnvString("GOOGLE_CLIENT_SECRET", "")
	cfg.GoogleRedirectURL = getEnvString("GOOGLE_REDIRECT_URL", "")

	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	cfg.MaxResponseSize = getEnvInt64("MAX_RESPONSE_SIZE", 5242880)
	cfg.OutboundRate = getEnvFloat("OUTBOUND_RATE", 10)
	cfg.OutboundBurst = getEnvInt("OUTBOUND_BURST", 20)
	cfg.BreakerMaxFailures = uint32(getEnvInt("BREAKER_MAX_FAILURES", 5))
	cfg.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)
	cfg.StubPort = getEnvString("STUB_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
