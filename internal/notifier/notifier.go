// Package notifier は通知メールの送信機能を提供する。
// メールゲートウェイのHTTPエンドポイントへのJSON送信と、
// 送信レート制御、配信失敗の型付きエラーを含む。
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hitoshi/careloop/internal/model"
)

// Notifier は通知送信のインターフェース。
// 配信失敗は*DeliveryErrorとして返され、呼び出し元（スイープ）は
// ログに記録して処理を継続する（fail-silentポリシー）。
type Notifier interface {
	Send(ctx context.Context, req model.NotificationRequest) error
}

// DeliveryError は通知の配信失敗を表す。
// リトライはしない。次のスケジュール実行が同じ条件を自然に再評価する。
type DeliveryError struct {
	Recipient  string
	StatusCode int // HTTPレスポンスを受け取れなかった場合は0
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("通知の配信に失敗しました (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("通知の配信に失敗しました: %v", e.Err)
}

// Unwrap はラップされたエラーを返す。
func (e *DeliveryError) Unwrap() error { return e.Err }

// gatewayMessage はメールゲートウェイへ送信するJSONペイロード。
type gatewayMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GatewayNotifier はメールゲートウェイのHTTPエンドポイント経由で通知を送信する。
// エンドポイントURLは起動時にSSRF検証済みであることを前提とし、
// クライアントにはsecurity.GatewayGuardServiceが生成した
// SSRF防止機能付きクライアントを渡す。
type GatewayNotifier struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	endpoint   string
	from       string
	maxBody    int64
}

// NewGatewayNotifier はGatewayNotifierの新しいインスタンスを生成する。
// ratePerSecが0以下の場合はレート制限を行わない。
func NewGatewayNotifier(
	httpClient *http.Client,
	logger *slog.Logger,
	endpoint string,
	from string,
	ratePerSec float64,
	burst int,
	maxBody int64,
) *GatewayNotifier {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	if burst <= 0 {
		burst = 1
	}
	return &GatewayNotifier{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		endpoint:   endpoint,
		from:       from,
		maxBody:    maxBody,
	}
}

// Send は通知をメールゲートウェイへ送信する。
// ゲートウェイ保護のため送信レートを制御し、超過時は待機する。
// 配信失敗は*DeliveryErrorとして返す。
func (n *GatewayNotifier) Send(ctx context.Context, notification model.NotificationRequest) error {
	// レート制御（コンテキストキャンセルで中断可能）
	if err := n.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Recipient: notification.Recipient, Err: err}
	}

	payload, err := json.Marshal(gatewayMessage{
		From:    n.from,
		To:      notification.Recipient,
		Subject: notification.Subject,
		Body:    notification.Body,
	})
	if err != nil {
		return &DeliveryError{Recipient: notification.Recipient, Err: fmt.Errorf("ペイロードの生成に失敗しました: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Recipient: notification.Recipient, Err: fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Careloop/1.0 Health Tracker")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("メールゲートウェイの呼び出しに失敗しました",
			slog.String("recipient", notification.Recipient),
			slog.String("error", err.Error()),
		)
		return &DeliveryError{Recipient: notification.Recipient, Err: err}
	}
	defer resp.Body.Close()

	// レスポンスボディは読み捨てる（最大サイズ制限付き）
	io.Copy(io.Discard, io.LimitReader(resp.Body, n.maxBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Error("メールゲートウェイがエラーステータスを返しました",
			slog.String("recipient", notification.Recipient),
			slog.Int("http_status", resp.StatusCode),
		)
		return &DeliveryError{
			Recipient:  notification.Recipient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("ゲートウェイがステータス %d を返しました", resp.StatusCode),
		}
	}

	return nil
}

// compile-time interface check
var _ Notifier = (*GatewayNotifier)(nil)
