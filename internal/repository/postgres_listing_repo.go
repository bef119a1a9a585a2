package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/removify/internal/model"
)

// listingColumns はlistingsテーブルのSELECT対象カラム。
const listingColumns = `id, submitted_by, source, summary, text, description, url, link, "timestamp", status, extra`

// PostgresListingRepo はPostgreSQLを使用したリスティングリポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

// FindByID は指定IDのリスティングを取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
		id,
	)
	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}

	return listing, nil
}

// FindByIDs は指定IDのうちownerが所有するリスティングを取得する。
func (r *PostgresListingRepo) FindByIDs(ctx context.Context, ids []string, owner string) ([]*model.Listing, error) {
	valid := validUUIDs(ids)
	if len(valid) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE id = ANY($1::uuid[]) AND lower(submitted_by) = lower($2)`,
		pq.Array(valid), owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings by IDs: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// ListByOwner はownerが所有する全リスティングを返す。
func (r *PostgresListingRepo) ListByOwner(ctx context.Context, owner string) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE lower(submitted_by) = lower($1)
		 ORDER BY "timestamp" DESC NULLS LAST`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings by owner: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// UpdateStatus はownerが所有する1件のステータスを更新する。
// 対象行をロックし、一致件数と変更件数を1文で返す。
func (r *PostgresListingRepo) UpdateStatus(ctx context.Context, id, owner string, status model.ListingStatus) (UpdateResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UpdateResult{}, nil
	}

	var res UpdateResult
	err := r.db.QueryRowContext(ctx,
		`WITH target AS (
		     SELECT id, status FROM listings
		     WHERE id = $1 AND lower(submitted_by) = lower($2)
		     FOR UPDATE
		 ), updated AS (
		     UPDATE listings l SET status = $3, updated_at = now()
		     FROM target
		     WHERE l.id = target.id AND target.status <> $3
		     RETURNING l.id
		 )
		 SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated)`,
		id, owner, string(status),
	).Scan(&res.Matched, &res.Modified)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update listing status: %w", err)
	}

	return res, nil
}

// UpdateStatusMany は指定IDのうち現在fromの状態にあるものだけをtoへ一括更新する。
func (r *PostgresListingRepo) UpdateStatusMany(ctx context.Context, ids []string, owner string, from, to model.ListingStatus) (UpdateResult, error) {
	valid := validUUIDs(ids)
	if len(valid) == 0 {
		return UpdateResult{}, nil
	}

	var res UpdateResult
	err := r.db.QueryRowContext(ctx,
		`WITH target AS (
		     SELECT id, status FROM listings
		     WHERE id = ANY($1::uuid[]) AND lower(submitted_by) = lower($2) AND status = $3
		     FOR UPDATE
		 ), updated AS (
		     UPDATE listings l SET status = $4, updated_at = now()
		     FROM target
		     WHERE l.id = target.id AND target.status <> $4
		     RETURNING l.id
		 )
		 SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated)`,
		pq.Array(valid), owner, string(from), string(to),
	).Scan(&res.Matched, &res.Modified)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to bulk update listing status: %w", err)
	}

	return res, nil
}

// Ping はPostgreSQLへの疎通を確認する。
func (r *PostgresListingRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*model.Listing, error) {
	l := &model.Listing{}
	var source, summary, text, description, url, link sql.NullString
	var ts sql.NullTime
	var status string
	var extra []byte

	if err := row.Scan(
		&l.ID, &l.SubmittedBy, &source, &summary, &text, &description,
		&url, &link, &ts, &status, &extra,
	); err != nil {
		return nil, err
	}

	l.Source = nullStringValue(source)
	l.Summary = nullStringValue(summary)
	l.Text = nullStringValue(text)
	l.Description = nullStringValue(description)
	l.URL = nullStringValue(url)
	l.Link = nullStringValue(link)
	l.Status = model.ListingStatus(status)
	if ts.Valid {
		l.Timestamp = &ts.Time
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &l.Extra); err != nil {
			return nil, fmt.Errorf("failed to decode listing extra: %w", err)
		}
	}

	return l, nil
}

func scanListings(rows *sql.Rows) ([]*model.Listing, error) {
	var listings []*model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}

// validUUIDs はUUIDとして解釈できるIDだけを重複なく返す。
func validUUIDs(ids []string) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		valid = append(valid, u.String())
	}
	return valid
}

// nullStringValue はsql.NullStringから文字列を取得する。NULLの場合は空文字を返す。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
