// Package bootstrap は初回セットアップ（初期管理者の作成）を提供する。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/equipman/internal/model"
	"github.com/hitoshi/equipman/internal/repository"
)

const (
	// starterInviteTTL は初期管理者と同時に発行する招待コードの有効期間。
	starterInviteTTL = 30 * 24 * time.Hour
	// starterInviteMaxUses は同招待コードの使用回数上限。
	starterInviteMaxUses = 10
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// InviteCreator は招待コード発行のインターフェース。
type InviteCreator interface {
	Create(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error)
}

// Service は初期セットアップのビジネスロジックを提供する。
type Service struct {
	userRepo      repository.UserRepository
	hasher        PasswordHasher
	invites       InviteCreator
	adminEmail    string
	adminPassword string
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	invites InviteCreator,
	adminEmail, adminPassword string,
) *Service {
	return &Service{
		userRepo:      userRepo,
		hasher:        hasher,
		invites:       invites,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

// InitResult は初期セットアップの結果。
type InitResult struct {
	Admin         *model.User
	StarterInvite *model.InviteCode
}

// InitAdmin は初期管理者アカウントと最初の招待コード（editor用）を作成する。
// 管理者は承認済みの状態で作成され、即座にログインできる。
// adminロールのユーザーが既に存在する場合はADMIN_ALREADY_EXISTSを返す。
// 存在チェックと作成は条件付きINSERT1文で行われ、同時実行でも管理者は最大1人。
func (s *Service) InitAdmin(ctx context.Context) (*InitResult, error) {
	hash, err := s.hasher.Hash(s.adminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		ID:           uuid.NewString(),
		Email:        s.adminEmail,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
		Approved:     true,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	admin.ApprovedBy = admin.ID

	if err := s.userRepo.CreateAdminIfAbsent(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminExists) {
			return nil, model.NewAdminExistsError()
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	invite, err := s.invites.Create(ctx, admin, model.RoleEditor, starterInviteMaxUses, starterInviteTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create starter invite: %w", err)
	}

	slog.Info("initial admin created",
		slog.String("admin_id", admin.ID),
		slog.String("email", admin.Email),
	)

	return &InitResult{Admin: admin, StarterInvite: invite}, nil
}
