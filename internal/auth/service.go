// Package auth は招待制の登録、ログイン、ロールベースの認可を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/equipman/internal/model"
	"github.com/hitoshi/equipman/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードのダイジェストを返す。
	Hash(plaintext string) (string, error)
	// Verify は平文とダイジェストの一致を検証する。不一致はfalse（エラーなし）。
	Verify(plaintext, digest string) bool
}

// TokenIssuer はセッショントークン発行のインターフェース。
type TokenIssuer interface {
	// Issue は指定ユーザーIDをsubjectとするトークンを発行する。
	Issue(userID string) (string, error)
}

// FieldSanitizer は自由記述フィールドのサニタイズのインターフェース。
type FieldSanitizer interface {
	Sanitize(raw string) string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	sanitizer FieldSanitizer
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	sanitizer FieldSanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		sanitizer: sanitizer,
	}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email      string
	Name       string
	Password   string
	InviteCode string
}

// Register は招待コードを消費して未承認ユーザーを作成する。
// ロールは招待コードの割り当てに従う。作成直後は承認待ちでログインできない。
// メール重複はEMAIL_TAKEN、招待コードの問題はINVALID_INVITEを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.TrimSpace(input.Email)

	// 先行チェック（利用者に分かりやすく早期拒否するためのもの）。
	// 一意性の実際の保証はDBの一意インデックスにある。
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         s.sanitizer.Sanitize(input.Name),
		Approved:     false,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	// 招待コードの消費とユーザー作成は同一トランザクション。
	// ここで招待コードを再検証するため、事前のプレビュー結果は信用しない。
	role, err := s.userRepo.CreateWithInviteRedemption(ctx, user, input.InviteCode)
	if err != nil {
		return nil, mapRegistrationError(err)
	}
	user.Role = role

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	return user, nil
}

// Login は認証情報を検証し、セッショントークンを発行する。
// メールアドレス不明とパスワード不一致は区別せずINVALID_CREDENTIALSを返す。
// 未承認ユーザーは認証情報が正しくてもPENDING_APPROVALでトークンを発行しない。
func (s *Service) Login(ctx context.Context, email, plaintextPassword string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(plaintextPassword, user.PasswordHash) {
		return "", nil, model.NewInvalidCredentialsError()
	}

	if !user.Approved {
		return "", nil, model.NewPendingApprovalError()
	}

	tokenString, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return tokenString, user, nil
}

// CurrentUser は認証済みユーザーIDからユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Authorize はユーザーのロールが許可集合に含まれるかを検査する純粋な述語。
// 含まれない場合はFORBIDDENを返す。状態は一切持たない。
func Authorize(user *model.User, allowedRoles ...model.Role) error {
	for _, role := range allowedRoles {
		if user.Role == role {
			return nil
		}
	}
	return model.NewForbiddenError()
}

// mapRegistrationError はストレージ層の分類エラーをAPIErrorに変換する。
func mapRegistrationError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return model.NewEmailTakenError()
	case errors.Is(err, repository.ErrInviteNotFound):
		return model.NewInvalidInviteError("コードが見つかりません")
	case errors.Is(err, repository.ErrInviteExpired):
		return model.NewInvalidInviteError("コードの有効期限が切れています")
	case errors.Is(err, repository.ErrInviteExhausted):
		return model.NewInvalidInviteError("コードは使用上限に達しています")
	default:
		return fmt.Errorf("failed to register user: %w", err)
	}
}
