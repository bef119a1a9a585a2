// Package user はアカウントプロフィールのドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/repository"
)

// Profile はGET /userで返すアカウントプロフィール。
type Profile struct {
	Email          string
	SlackConnected bool
	SlackTeamID    string
}

// Service はアカウントプロフィールのサービス層。
type Service struct {
	accountRepo repository.AccountRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accountRepo repository.AccountRepository) *Service {
	return &Service{accountRepo: accountRepo}
}

// GetProfile はメールアドレスに一致するアカウントのプロフィールを返す。
// Slackの認証情報は含めない。
func (s *Service) GetProfile(ctx context.Context, email string) (*Profile, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, model.NewValidationError("Email is required")
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}

	profile := &Profile{
		Email:          account.Email,
		SlackConnected: account.SlackConnected,
		SlackTeamID:    account.SlackTeamID,
	}
	if profile.SlackTeamID == "" && account.Slack != nil {
		profile.SlackTeamID = account.Slack.TeamID
	}
	return profile, nil
}
