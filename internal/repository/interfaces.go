// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/equipman/internal/model"
)

// ストレージ層の分類エラー。サービス層でAPIErrorに変換する。
var (
	// ErrEmailTaken はメールアドレスの一意制約違反を表す。
	ErrEmailTaken = errors.New("email already registered")
	// ErrInviteNotFound は未登録の招待コードを表す。
	ErrInviteNotFound = errors.New("invite code not found")
	// ErrInviteExpired は期限切れの招待コードを表す。
	ErrInviteExpired = errors.New("invite code expired")
	// ErrInviteExhausted は使用上限に達した招待コードを表す。
	ErrInviteExhausted = errors.New("invite code exhausted")
	// ErrAdminExists はブートストラップ時に管理者が既に存在することを表す。
	ErrAdminExists = errors.New("admin user already exists")
	// ErrProductNotFound は機器レコードの未検出を表す。
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound はユーザーの未検出を表す。
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する（大文字小文字を区別しない）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithInviteRedemption は招待コードの消費とユーザー作成を
	// 同一トランザクションで実行し、招待コードが割り当てるロールを返す。
	// 招待コードの使用回数チェックと加算は条件付きUPDATE1文で行われ、
	// 同時リクエストがmax_usesを超過することはない。
	// 失敗時はErrInviteNotFound / ErrInviteExpired / ErrInviteExhausted /
	// ErrEmailTakenのいずれかを返す。
	CreateWithInviteRedemption(ctx context.Context, user *model.User, inviteCode string) (model.Role, error)

	// CreateAdminIfAbsent はadminロールのユーザーが1人も存在しない場合に限り
	// userを作成する。既にadminが存在する場合はErrAdminExistsを返す。
	// 存在チェックと挿入は単一の条件付きINSERTで行われる。
	CreateAdminIfAbsent(ctx context.Context, user *model.User) error

	// Approve はユーザーを承認済みにし、承認者IDを記録する。
	// 既に承認済みでも冪等に成功する。対象が存在しない場合はErrUserNotFound。
	Approve(ctx context.Context, userID, approverID string) error

	// ListPending は未承認ユーザーの一覧を作成日時の昇順で返す。
	ListPending(ctx context.Context) ([]*model.User, error)

	// ListAll は全ユーザーの一覧を作成日時の昇順で返す。
	ListAll(ctx context.Context) ([]*model.User, error)
}

// InviteRepository は招待コードの永続化インターフェース。
type InviteRepository interface {
	// Create は招待コードを作成する。
	Create(ctx context.Context, invite *model.InviteCode) error

	// FindByCode は指定コードの招待を取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.InviteCode, error)

	// Redeem は招待コードを1回分消費し、割り当てロールを返す。
	// 使用回数の加算と利用者IDの追記は単一の条件付きUPDATEで原子的に行う。
	// 失敗時はErrInviteNotFound / ErrInviteExpired / ErrInviteExhaustedを返す。
	Redeem(ctx context.Context, code, redeemerID string) (model.Role, error)

	// ListAll は全招待コードの一覧を作成日時の降順で返す。
	ListAll(ctx context.Context) ([]*model.InviteCode, error)
}

// ProductRepository は機器レコードの永続化インターフェース。
// コアから見れば任意属性集合のCRUDストアにすぎない。
type ProductRepository interface {
	// Create は機器レコードを作成する。
	Create(ctx context.Context, product *model.Product) error

	// FindByID は指定IDの機器を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// List は全機器の一覧を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Product, error)

	// Update は変更対象フィールドのみを明示したマップで部分更新する。
	// マップに含まれないカラムは変更しない（全量上書きは行わない）。
	// 対象が存在しない場合はErrProductNotFoundを返す。
	Update(ctx context.Context, id string, changes map[string]any) error

	// Delete は指定IDの機器を削除する。
	// 対象が存在しない場合はErrProductNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// AuditRepository は監査ログの永続化インターフェース。
// 追記と照会のみを提供し、更新・削除の経路は存在しない。
type AuditRepository interface {
	// Insert は監査エントリを追記する。
	Insert(ctx context.Context, entry *model.AuditEntry) error

	// List はフィルタに合致するエントリをtimestampの降順で返す。
	List(ctx context.Context, filter model.AuditFilter, limit int) ([]*model.AuditEntry, error)
}
