// Package apiclient はリモートストアREST APIへのトランスポート層を提供する。
// レート制限、サーキットブレーカー、エラー分類、メトリクス記録を担う。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/hitoshi/foodiefinds/internal/metrics"
	"github.com/hitoshi/foodiefinds/internal/model"
)

// RequesterHeader は変更系リクエストの要求者をリモートストアに伝えるヘッダー。
// 所有者チェックはリモートストアが唯一の権威として行う。
const RequesterHeader = "X-Requester-Email"

// ErrBadRequest はストアが400を返したことを示す。
// 400の意味はエンドポイントごとに異なるため、分類はリポジトリ層が行う
// （お気に入り追加では重複、それ以外では入力不備）。
var ErrBadRequest = errors.New("remote store rejected request (400)")

// ClientConfig はClientの設定。
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxResponseSize int64
	Rate            float64 // 外向きリクエストのレート（req/sec）。0以下で無制限
	Burst           int

	// Circuit breaker
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Client はリモートストアAPIのHTTPクライアント。
// 全リポジトリ実装が共有し、並行呼び出しに対して安全。
type Client struct {
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker
	collector       metrics.MetricsCollector
	logger          *slog.Logger
	maxResponseSize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientがnilの場合はタイムアウト付きのクライアントを内部で生成する。
func NewClient(config ClientConfig, httpClient *http.Client, collector metrics.MetricsCollector, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if config.Rate > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.Rate), burst)
	}

	maxFailures := config.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := config.BreakerOpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "remote-store",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("サーキットブレーカーの状態が変化しました",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	maxSize := config.MaxResponseSize
	if maxSize <= 0 {
		maxSize = 5242880
	}

	return &Client{
		baseURL:         strings.TrimRight(config.BaseURL, "/"),
		httpClient:      httpClient,
		limiter:         limiter,
		breaker:         breaker,
		collector:       collector,
		logger:          logger,
		maxResponseSize: maxSize,
	}
}

// Get はGETリクエストを実行し、レスポンスJSONをoutにデコードする。
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, "")
}

// Post はbodyをJSONとしてPOSTし、レスポンスJSONをoutにデコードする。
// outがnilの場合はレスポンスボディを破棄する。
// requesterが非空の場合はRequesterHeaderとして送信する。
func (c *Client) Post(ctx context.Context, path string, body, out any, requester string) error {
	return c.do(ctx, http.MethodPost, path, body, out, requester)
}

// Put はbodyをJSONとしてPUTし、レスポンスJSONをoutにデコードする。
func (c *Client) Put(ctx context.Context, path string, body, out any, requester string) error {
	return c.do(ctx, http.MethodPut, path, body, out, requester)
}

// Delete はDELETEリクエストを実行する。
func (c *Client) Delete(ctx context.Context, path, requester string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, requester)
}

// do はHTTPリクエストを1回実行する。自動リトライは行わない。
// ステータスコードをドメインのエラー分類に変換する:
// 404→NotFound、403→Forbidden、400→ErrBadRequest（呼び出し元が分類）、
// 5xxおよびトランスポート障害→TransientNetworkError。
func (c *Client) do(ctx context.Context, method, path string, body, out any, requester string) error {
	// 1. 外向きレート制限
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.NewTransientNetworkError(err.Error())
		}
	}

	// 2. リクエスト作成
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if requester != "" {
		req.Header.Set(RequesterHeader, requester)
	}

	// 3. サーキットブレーカー越しに実行。
	// 5xxとトランスポート障害のみを失敗として数え、4xxは数えない。
	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("リモートストアがステータス %d を返しました", resp.StatusCode)
		}
		return resp, nil
	})
	c.collector.RecordAPILatency(time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.collector.RecordBreakerRejection()
			c.logger.Warn("サーキットブレーカーによりリクエストを遮断しました",
				slog.String("method", method),
				slog.String("path", path),
			)
			return model.NewTransientNetworkError("リモートストアへのアクセスを一時停止中です")
		}
		c.collector.RecordAPIRequest(method, 0)
		c.logger.Error("リモートストアへのリクエストに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return model.NewTransientNetworkError(err.Error())
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()
	c.collector.RecordAPIRequest(method, resp.StatusCode)

	// 4. ステータスコードの分類
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.NewNotFoundError(path)
	case resp.StatusCode == http.StatusForbidden:
		return model.NewForbiddenError()
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%s %s: %w", method, path, ErrBadRequest)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return model.NewTransientNetworkError(fmt.Sprintf("ステータス %d", resp.StatusCode))
	}

	// 5. レスポンスのデコード
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxResponseSize))
		return nil
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return model.NewTransientNetworkError(err.Error())
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewTransientNetworkError(fmt.Sprintf("レスポンスJSONのパースに失敗しました: %s", err))
	}

	return nil
}
