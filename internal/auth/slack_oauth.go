package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

const (
	slackAuthorizeURL = "https://slack.com/oauth/v2/authorize"
	slackTokenURL     = "https://slack.com/api/oauth.v2.access"
)

// slackScopes はボットに要求するスコープ。
var slackScopes = []string{"chat:write", "channels:read", "groups:read", "chat:write.customize"}

// OAuthAccess はoauth.v2.accessの応答から取り出したインストール情報。
type OAuthAccess struct {
	TeamID             string
	TeamName           string
	BotToken           string
	BotUserID          string
	AuthedUserID       string
	IncomingWebhookURL string
}

// CodeExchanger は認可コードをSlackのアクセストークンに交換するインターフェース。
type CodeExchanger interface {
	Exchange(ctx context.Context, code, redirectURL string) (*OAuthAccess, error)
}

// httpDoer はslack-goが要求するHTTPクライアント。
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SlackCodeExchanger はslack-goのoauth.v2.access呼び出しを使用するCodeExchanger実装。
type SlackCodeExchanger struct {
	clientID     string
	clientSecret string
	client       httpDoer
}

// NewSlackCodeExchanger はSlackCodeExchangerを生成する。
// clientがnilの場合はhttp.DefaultClientを使用する。
func NewSlackCodeExchanger(clientID, clientSecret string, client httpDoer) *SlackCodeExchanger {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackCodeExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       client,
	}
}

// Exchange は認可コードを交換する。Slackがok=falseを返した場合もエラーとする。
func (e *SlackCodeExchanger) Exchange(ctx context.Context, code, redirectURL string) (*OAuthAccess, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, e.client, e.clientID, e.clientSecret, code, redirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange slack oauth code: %w", err)
	}
	if resp.AccessToken == "" || resp.Team.ID == "" {
		return nil, fmt.Errorf("incomplete slack oauth response")
	}

	return &OAuthAccess{
		TeamID:             resp.Team.ID,
		TeamName:           resp.Team.Name,
		BotToken:           resp.AccessToken,
		BotUserID:          resp.BotUserID,
		AuthedUserID:       resp.AuthedUser.ID,
		IncomingWebhookURL: resp.IncomingWebhook.URL,
	}, nil
}

// compile-time interface check
var _ CodeExchanger = (*SlackCodeExchanger)(nil)
