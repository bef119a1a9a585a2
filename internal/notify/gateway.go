// Package notify は運用チャンネルへの通知送信を提供する。
// Gatewayはプロセス起動時に1度だけ生成し、必要なサービスに注入する。
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// ErrNotConfigured はボットトークンまたはチャンネルが未設定の場合のエラー。
var ErrNotConfigured = errors.New("notify: slack notifications are not configured")

// Message は運用チャンネルへ送信するメッセージ。
type Message struct {
	Text     string
	Username string // 空の場合はボットの既定名
	IconURL  string // 空の場合はボットの既定アイコン
}

// Gateway は運用チャンネルへメッセージを届けるインターフェース。
type Gateway interface {
	// PostMessage はメッセージを1回だけ送信し、Slackのメッセージタイムスタンプを返す。
	// リトライは行わない。
	PostMessage(ctx context.Context, msg Message) (string, error)
}

// SlackGateway はSlack Web APIのchat.postMessageを使用するGateway実装。
type SlackGateway struct {
	client    *slack.Client
	channelID string
}

// NewSlackGateway はSlackGatewayを生成する。
// optsはテスト時のAPI URL差し替えなどに使用する。
func NewSlackGateway(botToken, channelID string, opts ...slack.Option) *SlackGateway {
	return &SlackGateway{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
	}
}

// PostMessage は設定済みチャンネルへメッセージを送信する。
// リンクとメディアの展開は無効にする。
func (g *SlackGateway) PostMessage(ctx context.Context, msg Message) (string, error) {
	options := []slack.MsgOption{
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionDisableLinkUnfurl(),
		slack.MsgOptionDisableMediaUnfurl(),
	}
	if msg.Username != "" {
		options = append(options, slack.MsgOptionUsername(msg.Username))
	}
	if msg.IconURL != "" {
		options = append(options, slack.MsgOptionIconURL(msg.IconURL))
	}

	_, ts, err := g.client.PostMessageContext(ctx, g.channelID, options...)
	if err != nil {
		return "", fmt.Errorf("failed to post slack message: %w", err)
	}
	return ts, nil
}

// disabledGateway は設定が無い場合に注入されるGateway実装。
// 送信要求をエラーログに残し、ErrNotConfiguredを返す。
type disabledGateway struct {
	logger *slog.Logger
}

// NewDisabledGateway は送信を行わないGatewayを生成する。
func NewDisabledGateway(logger *slog.Logger) Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &disabledGateway{logger: logger}
}

// PostMessage は常にErrNotConfiguredを返す。
func (g *disabledGateway) PostMessage(ctx context.Context, msg Message) (string, error) {
	g.logger.Error("slack notification skipped: SLACK_BOT_TOKEN or SLACK_CHANNEL_ID is not set")
	return "", ErrNotConfigured
}

// New は設定値からGatewayを生成する。
// トークンかチャンネルが空の場合は送信を行わないGatewayを返す。
func New(botToken, channelID string, logger *slog.Logger) Gateway {
	if botToken == "" || channelID == "" {
		return NewDisabledGateway(logger)
	}
	return NewSlackGateway(botToken, channelID)
}

// compile-time interface check
var _ Gateway = (*SlackGateway)(nil)
