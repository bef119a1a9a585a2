// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/removify/internal/model"
)

// UpdateResult はステータス更新の結果件数。
// Matchedはフィルタに一致した件数、Modifiedは実際に値が変わった件数。
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// ListingRepository はリスティングデータの永続化インターフェース。
type ListingRepository interface {
	// FindByID は指定IDのリスティングを取得する。
	// 見つからない場合や形式不正のIDの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Listing, error)

	// FindByIDs は指定IDのうちownerが所有するリスティングを取得する。
	// 形式不正のIDは無視する。
	FindByIDs(ctx context.Context, ids []string, owner string) ([]*model.Listing, error)

	// ListByOwner はownerが所有する全リスティングを返す。
	// ownerは大文字小文字を区別せずに照合する。
	ListByOwner(ctx context.Context, owner string) ([]*model.Listing, error)

	// UpdateStatus はownerが所有する1件のステータスをアトミックに更新する。
	UpdateStatus(ctx context.Context, id, owner string, status model.ListingStatus) (UpdateResult, error)

	// UpdateStatusMany は指定IDのうち現在fromの状態にあるものだけをtoへ一括更新する。
	UpdateStatusMany(ctx context.Context, ids []string, owner string, from, to model.ListingStatus) (UpdateResult, error)

	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
}

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindYearlyRevenue はアカウントの年間売上を取得する。
	// 記録が無い場合、空・0・数値として解釈できない場合はnilを返す。
	FindYearlyRevenue(ctx context.Context, email string) (*model.Revenue, error)

	// SaveSlackCredentials はSlack認証情報をアカウントに保存する。
	// 該当アカウントが無い場合はfalseを返す。
	SaveSlackCredentials(ctx context.Context, email string, creds *model.SlackCredentials) (bool, error)
}

// InstallationRepository はSlackインストール記録の永続化インターフェース。
type InstallationRepository interface {
	// Upsert はチームIDをキーにインストール記録を作成または更新する。
	Upsert(ctx context.Context, inst *model.SlackInstallation) error
}
