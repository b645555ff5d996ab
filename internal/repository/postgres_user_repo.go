package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/equipman/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pqUniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, name, role, approved, approved_by, password_hash, created_at`

// scanUser は1行をmodel.Userに読み込む。
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Role,
		&user.Approved, &user.ApprovedBy, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する（大文字小文字を区別しない）。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// CreateWithInviteRedemption は招待コードの消費とユーザー作成を同一トランザクションで実行する。
// 招待コードの検証・加算は条件付きUPDATE1文で行うため、容量超過の競合は起きない。
// メール重複はusers_email_lower_keyの一意制約違反として検出する。
func (r *PostgresUserRepo) CreateWithInviteRedemption(ctx context.Context, user *model.User, inviteCode string) (model.Role, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 招待コードを消費し、割り当てロールを得る
	role, err := redeemInvite(ctx, tx, inviteCode, user.ID)
	if err != nil {
		return "", err
	}

	// ユーザーを作成（ロールは招待コードから引き継ぐ）
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, approved, approved_by, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Name, role,
		user.Approved, user.ApprovedBy, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return role, nil
}

// CreateAdminIfAbsent はadminが1人も存在しない場合に限りuserを作成する。
// 存在チェックと挿入を単一の条件付きINSERTで行い、同時実行でも高々1回しか成功しない。
func (r *PostgresUserRepo) CreateAdminIfAbsent(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, approved, approved_by, password_hash, created_at)
		 SELECT $1, $2, $3, 'admin', $4, $5, $6, $7
		 WHERE NOT EXISTS (SELECT 1 FROM users WHERE role = 'admin')`,
		user.ID, user.Email, user.Name,
		user.Approved, user.ApprovedBy, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert admin user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAdminExists
	}
	return nil
}

// Approve はユーザーを承認済みにする。既に承認済みでも冪等に成功する。
func (r *PostgresUserRepo) Approve(ctx context.Context, userID, approverID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET approved = TRUE, approved_by = $2 WHERE id = $1`,
		userID, approverID,
	)
	if err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListPending は未承認ユーザーの一覧を作成日時の昇順で返す。
func (r *PostgresUserRepo) ListPending(ctx context.Context) ([]*model.User, error) {
	return r.list(ctx,
		`SELECT `+userColumns+` FROM users WHERE NOT approved ORDER BY created_at ASC`)
}

// ListAll は全ユーザーの一覧を作成日時の昇順で返す。
func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	return r.list(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
}

func (r *PostgresUserRepo) list(ctx context.Context, query string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
