package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/equipman/internal/model"
)

// PostgresInviteRepo はPostgreSQLを使用した招待コードリポジトリ。
type PostgresInviteRepo struct {
	db *sql.DB
}

// NewPostgresInviteRepo はPostgresInviteRepoを生成する。
func NewPostgresInviteRepo(db *sql.DB) *PostgresInviteRepo {
	return &PostgresInviteRepo{db: db}
}

// querier は*sql.DBと*sql.Txの両方で満たされる最小インターフェース。
// 招待コードの消費を単体でもトランザクション内でも使えるようにする。
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// redeemInvite は招待コードを1回分消費する。
// 使用回数の加算と利用者IDの追記は単一の条件付きUPDATEで行う。
// WHERE句のused_count < max_usesにより、同時に2つのリクエストが
// 残り1回のコードを消費しても成功するのは片方だけになる。
func redeemInvite(ctx context.Context, q querier, code, redeemerID string) (model.Role, error) {
	var role model.Role
	err := q.QueryRowContext(ctx,
		`UPDATE invite_codes
		 SET used_count = used_count + 1,
		     used_by = array_append(used_by, $2)
		 WHERE code = $1
		   AND used_count < max_uses
		   AND expires_at > now()
		 RETURNING role_assigned`,
		code, redeemerID,
	).Scan(&role)

	if err == nil {
		return role, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to redeem invite code: %w", err)
	}

	// 条件付きUPDATEが空振りした理由を分類する（結果には影響しない）
	var expired, exhausted bool
	err = q.QueryRowContext(ctx,
		`SELECT expires_at <= now(), used_count >= max_uses FROM invite_codes WHERE code = $1`,
		code,
	).Scan(&expired, &exhausted)
	if err == sql.ErrNoRows {
		return "", ErrInviteNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to inspect invite code: %w", err)
	}
	if expired {
		return "", ErrInviteExpired
	}
	if exhausted {
		return "", ErrInviteExhausted
	}
	// チェックと分類の間に状態が変わった場合。消費はされていない。
	return "", ErrInviteExhausted
}

// Create は招待コードを作成する。
func (r *PostgresInviteRepo) Create(ctx context.Context, invite *model.InviteCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invite_codes (code, created_by, role_assigned, created_at, expires_at, max_uses, used_count, used_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		invite.Code, invite.CreatedBy, invite.RoleAssigned,
		invite.CreatedAt, invite.ExpiresAt, invite.MaxUses,
		invite.UsedCount, pq.Array(invite.UsedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invite code: %w", err)
	}
	return nil
}

// FindByCode は指定コードの招待を取得する。見つからない場合はnilを返す。
func (r *PostgresInviteRepo) FindByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	invite := &model.InviteCode{}
	err := r.db.QueryRowContext(ctx,
		`SELECT code, created_by, role_assigned, created_at, expires_at, max_uses, used_count, used_by
		 FROM invite_codes WHERE code = $1`,
		code,
	).Scan(
		&invite.Code, &invite.CreatedBy, &invite.RoleAssigned,
		&invite.CreatedAt, &invite.ExpiresAt, &invite.MaxUses,
		&invite.UsedCount, pq.Array(&invite.UsedBy),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invite code: %w", err)
	}
	return invite, nil
}

// Redeem は招待コードを1回分消費し、割り当てロールを返す。
func (r *PostgresInviteRepo) Redeem(ctx context.Context, code, redeemerID string) (model.Role, error) {
	return redeemInvite(ctx, r.db, code, redeemerID)
}

// ListAll は全招待コードの一覧を作成日時の降順で返す。
func (r *PostgresInviteRepo) ListAll(ctx context.Context) ([]*model.InviteCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, created_by, role_assigned, created_at, expires_at, max_uses, used_count, used_by
		 FROM invite_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invite codes: %w", err)
	}
	defer rows.Close()

	var invites []*model.InviteCode
	for rows.Next() {
		invite := &model.InviteCode{}
		err := rows.Scan(
			&invite.Code, &invite.CreatedBy, &invite.RoleAssigned,
			&invite.CreatedAt, &invite.ExpiresAt, &invite.MaxUses,
			&invite.UsedCount, pq.Array(&invite.UsedBy),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite code: %w", err)
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invite codes: %w", err)
	}
	return invites, nil
}

// compile-time interface check
var _ InviteRepository = (*PostgresInviteRepo)(nil)
