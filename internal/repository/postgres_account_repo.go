package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/removify/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	a := &model.Account{}
	var teamID, botToken, botUserID, webhookURL, authedUserID sql.NullString
	var installedAt, slackUpdatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT email, slack_connected, slack_team_id, slack_bot_token, slack_bot_user_id,
		        slack_incoming_webhook_url, slack_authed_user_id, slack_installed_at,
		        slack_updated_at, updated_at
		 FROM accounts WHERE lower(email) = lower($1)`,
		email,
	).Scan(
		&a.Email, &a.SlackConnected, &teamID, &botToken, &botUserID,
		&webhookURL, &authedUserID, &installedAt,
		&slackUpdatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	a.SlackTeamID = nullStringValue(teamID)
	if botToken.Valid {
		a.Slack = &model.SlackCredentials{
			TeamID:             nullStringValue(teamID),
			BotToken:           botToken.String,
			BotUserID:          nullStringValue(botUserID),
			IncomingWebhookURL: nullStringValue(webhookURL),
			AuthedUserID:       nullStringValue(authedUserID),
			InstalledAt:        installedAt.Time,
			UpdatedAt:          slackUpdatedAt.Time,
		}
	}

	return a, nil
}

// FindYearlyRevenue はaccounts.yearly_revenueから年間売上を取得する。
// 取り込み元に合わせてテキストで保存し、読み出し時に数値へ変換する。
func (r *PostgresAccountRepo) FindYearlyRevenue(ctx context.Context, email string) (*model.Revenue, error) {
	var stored string
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT email, yearly_revenue FROM accounts WHERE lower(email) = lower($1)`,
		email,
	).Scan(&stored, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find yearly revenue: %w", err)
	}

	if !raw.Valid {
		return nil, nil
	}
	value, ok := parseRevenue(raw.String)
	if !ok {
		return nil, nil
	}
	return &model.Revenue{Email: stored, YearlyRevenue: value}, nil
}

// SaveSlackCredentials はSlack認証情報をアカウントに保存する。
func (r *PostgresAccountRepo) SaveSlackCredentials(ctx context.Context, email string, creds *model.SlackCredentials) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET
		     slack_connected = TRUE,
		     slack_team_id = $2,
		     slack_bot_token = $3,
		     slack_bot_user_id = $4,
		     slack_incoming_webhook_url = $5,
		     slack_authed_user_id = $6,
		     slack_installed_at = COALESCE(slack_installed_at, $7),
		     slack_updated_at = $8,
		     updated_at = $8
		 WHERE lower(email) = lower($1)`,
		email, creds.TeamID, creds.BotToken, creds.BotUserID,
		creds.IncomingWebhookURL, creds.AuthedUserID, creds.InstalledAt, creds.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save slack credentials: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
