// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/cli"
	"github.com/hitoshi/foodiefinds/internal/config"
	"github.com/hitoshi/foodiefinds/internal/guard"
	"github.com/hitoshi/foodiefinds/internal/idp"
	"github.com/hitoshi/foodiefinds/internal/logger"
	"github.com/hitoshi/foodiefinds/internal/metrics"
	"github.com/hitoshi/foodiefinds/internal/repository"
	"github.com/hitoshi/foodiefinds/internal/security"
	"github.com/hitoshi/foodiefinds/internal/session"
	"github.com/hitoshi/foodiefinds/internal/stub"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("STUB_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("base_url", cfg.APIBaseURL),
	)

	switch cmd {
	case CommandStub:
		return runStub(cfg)
	case CommandBrowse:
		return runBrowse(cfg)
	default:
		return runBrowse(cfg)
	}
}

// runBrowse は対話型クライアントモードで起動する。
// 全依存関係をワイヤリングし、標準入出力でコマンドループを実行する。
func runBrowse(cfg *config.Config) error {
	// 1. メトリクスの初期化。METRICS_PORTが設定されている場合のみ公開する
	registry := prometheus.NewRegistry()
	var collector metrics.MetricsCollector = metrics.NewCollector(registry)
	if cfg.MetricsPort != "" {
		go serveMetrics(cfg.MetricsPort, registry)
	}

	// 2. セキュリティサービスの初期化
	imageGuard := security.NewImageURLGuard()
	sanitizer := security.NewReviewSanitizer()

	// 3. トランスポートとリポジトリの初期化。
	// ストアはローカルのスタブを指すことがあるため、SSRF防止クライアントは使わない
	client := apiclient.NewClient(apiclient.ClientConfig{
		BaseURL:            cfg.APIBaseURL,
		Timeout:            cfg.HTTPTimeout,
		MaxResponseSize:    cfg.MaxResponseSize,
		Rate:               cfg.OutboundRate,
		Burst:              cfg.OutboundBurst,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}, nil, collector, slog.Default())

	reviewRepo := repository.NewRestReviewRepo(client)
	favoriteRepo := repository.NewRestFavoriteRepo(client)
	profileRepo := repository.NewRestProfileRepo(client)

	// 4. IDプロバイダーとセッションの初期化。
	// IdPは常に公開HTTPSエンドポイントのため、SSRF防止クライアントを使う
	provider := idp.NewGoogleProvider(idp.GoogleConfig{
		APIKey:       cfg.IdpAPIKey,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, imageGuard.NewSafeClient(cfg.HTTPTimeout, cfg.MaxResponseSize))
	sessionStore := session.NewStore(provider, profileRepo, slog.Default())

	// 5. CLIの起動
	front := cli.New(os.Stdin, os.Stdout, cli.Deps{
		Session:    sessionStore,
		Reviews:    reviewRepo,
		Favorites:  favoriteRepo,
		Guard:      guard.New(sessionStore),
		Sanitizer:  sanitizer,
		ImageGuard: imageGuard,
		Collector:  collector,
		Logger:     slog.Default(),
	})
	return front.Run(context.Background())
}

// runStub はインメモリのスタブストアを起動する。
func runStub(cfg *config.Config) error {
	server := stub.NewServer(stub.NewMemoryStore(), slog.Default())

	if cfg.MetricsPort != "" {
		registry := prometheus.NewRegistry()
		metrics.NewCollector(registry)
		go serveMetrics(cfg.MetricsPort, registry)
	}

	return server.ListenAndServe(":" + cfg.StubPort)
}

// serveMetrics はPrometheusメトリクスエンドポイントを起動する。
func serveMetrics(port string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("metrics endpoint starting", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server error", slog.String("error", err.Error()))
	}
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
