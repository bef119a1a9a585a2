// Package auth はSlackワークスペース連携のOAuthフローを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hitoshi/removify/internal/logger"
	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/repository"
)

// コールバック失敗時にダッシュボードへ渡すslackErrorの値。
var (
	ErrMissingParams    = errors.New("missing_params")
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrInvalidState     = errors.New("invalid_state")
	ErrOAuthFailed      = errors.New("oauth_failed")
	ErrAccountNotFound  = errors.New("account_not_found")
)

// callbackErrorException は分類できない失敗を表すslackErrorの値。
const callbackErrorException = "exception"

// ServiceConfig はSlack連携の設定。
type ServiceConfig struct {
	ClientID     string
	ClientSecret string
	StateSecret  string
	BaseURL      string
}

// Enabled はSlack連携に必要な設定がすべて揃っているかを返す。
func (c ServiceConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.StateSecret != ""
}

// Service はSlack連携に関するビジネスロジックを提供する。
type Service struct {
	oauth       *oauth2.Config
	exchanger   CodeExchanger
	state       *StateSigner
	accountRepo repository.AccountRepository
	installRepo repository.InstallationRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	config ServiceConfig,
	exchanger CodeExchanger,
	accountRepo repository.AccountRepository,
	installRepo repository.InstallationRepository,
) *Service {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  baseURL + "/slack/oauth/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  slackAuthorizeURL,
				TokenURL: slackTokenURL,
			},
		},
		exchanger:   exchanger,
		state:       NewStateSigner(config.StateSecret),
		accountRepo: accountRepo,
		installRepo: installRepo,
		config:      config,
		now:         time.Now,
	}
}

// Enabled はSlack連携が利用可能かを返す。
func (s *Service) Enabled() bool {
	return s.config.Enabled()
}

// AuthorizeURL は連携要求者を埋め込んだstate付きのSlack認可URLを生成する。
func (s *Service) AuthorizeURL(email string) (string, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return "", model.NewUnauthenticatedError()
	}
	if !s.Enabled() {
		return "", model.NewIntegrationDisabledError()
	}

	state, err := s.state.Issue(email)
	if err != nil {
		return "", fmt.Errorf("stateの発行に失敗しました: %w", err)
	}

	// Slackはスコープをカンマ区切りで受け取る
	return s.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", strings.Join(slackScopes, ",")),
	), nil
}

// HandleCallback は認可コードを交換し、アカウントとインストール記録に認証情報を保存する。
// 返すエラーはCallbackErrorCodeでダッシュボード向けの値に変換できる。
func (s *Service) HandleCallback(ctx context.Context, email, code, state string) error {
	if code == "" || state == "" {
		return ErrMissingParams
	}
	email = model.NormalizeEmail(email)
	if email == "" {
		return ErrNotAuthenticated
	}

	stateEmail, err := s.state.Verify(state)
	if err != nil {
		slog.Warn("slack oauth state rejected", slog.String("error", err.Error()))
		return ErrInvalidState
	}
	if !model.EqualEmail(stateEmail, email) {
		return ErrInvalidState
	}

	access, err := s.exchanger.Exchange(ctx, code, s.oauth.RedirectURL)
	if err != nil {
		slog.Error("slack oauth exchange failed",
			slog.String("user", logger.RedactEmail(email)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}

	now := s.now()
	// 再接続時は最初の連携日時を引き継ぐ
	installedAt := now
	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if existing != nil && existing.Slack != nil && !existing.Slack.InstalledAt.IsZero() {
		installedAt = existing.Slack.InstalledAt
	}

	matched, err := s.accountRepo.SaveSlackCredentials(ctx, email, &model.SlackCredentials{
		TeamID:             access.TeamID,
		BotToken:           access.BotToken,
		BotUserID:          access.BotUserID,
		IncomingWebhookURL: access.IncomingWebhookURL,
		AuthedUserID:       access.AuthedUserID,
		InstalledAt:        installedAt,
		UpdatedAt:          now,
	})
	if err != nil {
		return fmt.Errorf("Slack認証情報の保存に失敗しました: %w", err)
	}
	if !matched {
		return ErrAccountNotFound
	}

	if err := s.installRepo.Upsert(ctx, &model.SlackInstallation{
		TeamID:             access.TeamID,
		TeamName:           access.TeamName,
		UserID:             access.AuthedUserID,
		UserEmail:          email,
		BotToken:           access.BotToken,
		BotUserID:          access.BotUserID,
		IncomingWebhookURL: access.IncomingWebhookURL,
		UpdatedAt:          now,
	}); err != nil {
		return fmt.Errorf("インストール記録の保存に失敗しました: %w", err)
	}

	slog.Info("slack workspace connected",
		slog.String("user", logger.RedactEmail(email)),
		slog.String("team_id", access.TeamID),
	)
	return nil
}

// CallbackErrorCode はHandleCallbackのエラーをslackErrorの値に変換する。
func CallbackErrorCode(err error) string {
	for _, known := range []error{ErrMissingParams, ErrNotAuthenticated, ErrInvalidState, ErrOAuthFailed, ErrAccountNotFound} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return callbackErrorException
}
