package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/removify/internal/model"
)

// PostgresInstallationRepo はPostgreSQLを使用したSlackインストール記録リポジトリ。
type PostgresInstallationRepo struct {
	db *sql.DB
}

// NewPostgresInstallationRepo はPostgresInstallationRepoを生成する。
func NewPostgresInstallationRepo(db *sql.DB) *PostgresInstallationRepo {
	return &PostgresInstallationRepo{db: db}
}

// Upsert はteam_idをキーにインストール記録を作成または更新する。
func (r *PostgresInstallationRepo) Upsert(ctx context.Context, inst *model.SlackInstallation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO slack_installations
		     (team_id, team_name, user_id, user_email, bot_token, bot_user_id, incoming_webhook_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (team_id) DO UPDATE SET
		     team_name = EXCLUDED.team_name,
		     user_id = EXCLUDED.user_id,
		     user_email = EXCLUDED.user_email,
		     bot_token = EXCLUDED.bot_token,
		     bot_user_id = EXCLUDED.bot_user_id,
		     incoming_webhook_url = EXCLUDED.incoming_webhook_url,
		     updated_at = EXCLUDED.updated_at`,
		inst.TeamID, inst.TeamName, inst.UserID, inst.UserEmail,
		inst.BotToken, inst.BotUserID, inst.IncomingWebhookURL, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert slack installation: %w", err)
	}
	return nil
}

// compile-time interface check
var _ InstallationRepository = (*PostgresInstallationRepo)(nil)
