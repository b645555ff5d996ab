// Package invite は招待コードの発行・検証・照会を提供する。
package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/equipman/internal/model"
	"github.com/hitoshi/equipman/internal/repository"
)

const (
	// defaultMaxUses は使用回数上限の未指定時のデフォルト（使い切り）。
	defaultMaxUses = 1
	// defaultTTL は有効期限の未指定時のデフォルト。
	defaultTTL = 7 * 24 * time.Hour
	// codeEntropyBytes はコード生成に使う乱数のバイト数。
	codeEntropyBytes = 24
	// entityType は監査ログ上のエンティティ種別。
	entityType = "invite_code"
)

// AuditRecorder は監査証跡の記録インターフェース。
type AuditRecorder interface {
	Record(ctx context.Context, entityType, entityID string, action model.AuditAction, changes map[string]any, actor *model.User)
}

// Service は招待コードに関するビジネスロジックを提供する。
type Service struct {
	inviteRepo repository.InviteRepository
	auditor    AuditRecorder
	now        func() time.Time
}

// NewService はServiceを生成する。
func NewService(inviteRepo repository.InviteRepository, auditor AuditRecorder) *Service {
	return &Service{
		inviteRepo: inviteRepo,
		auditor:    auditor,
		now:        time.Now,
	}
}

// Create は新しい招待コードを発行し、監査ログに記録する。
// roleが不正な場合はINVALID_ROLEを返す。maxUsesが0以下なら1、
// ttlが0以下なら7日をデフォルトとして使う。
func (s *Service) Create(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error) {
	if !model.ValidRole(role) {
		return nil, model.NewInvalidRoleError(string(role))
	}
	if maxUses <= 0 {
		maxUses = defaultMaxUses
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	now := s.now().UTC()
	invite := &model.InviteCode{
		Code:         code,
		CreatedBy:    creator.ID,
		RoleAssigned: role,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		MaxUses:      maxUses,
		UsedCount:    0,
		UsedBy:       []string{},
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite code: %w", err)
	}

	s.auditor.Record(ctx, entityType, invite.Code, model.AuditActionCreate,
		map[string]any{"role": string(role)}, creator)

	slog.Info("invite code created",
		slog.String("created_by", creator.ID),
		slog.String("role_assigned", string(role)),
		slog.Int("max_uses", maxUses),
	)

	return invite, nil
}

// Validate は招待コードが現時点で利用可能かを読み取り専用で確認する。
// 利用可能な場合は割り当てロールを返す。状態は一切変更しない。
// あくまでプレビューであり、登録時には改めて原子的に消費・再検証される。
func (s *Service) Validate(ctx context.Context, code string) (model.Role, error) {
	invite, err := s.inviteRepo.FindByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to find invite code: %w", err)
	}
	if invite == nil {
		return "", model.NewInvalidInviteError("コードが見つかりません")
	}
	if invite.Expired(s.now()) {
		return "", model.NewInvalidInviteError("コードの有効期限が切れています")
	}
	if invite.Exhausted() {
		return "", model.NewInvalidInviteError("コードは使用上限に達しています")
	}
	return invite.RoleAssigned, nil
}

// Redeem は招待コードを1回分消費し、割り当てロールを返す。
func (s *Service) Redeem(ctx context.Context, code, redeemerID string) (model.Role, error) {
	role, err := s.inviteRepo.Redeem(ctx, code, redeemerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInviteNotFound):
			return "", model.NewInvalidInviteError("コードが見つかりません")
		case errors.Is(err, repository.ErrInviteExpired):
			return "", model.NewInvalidInviteError("コードの有効期限が切れています")
		case errors.Is(err, repository.ErrInviteExhausted):
			return "", model.NewInvalidInviteError("コードは使用上限に達しています")
		default:
			return "", fmt.Errorf("failed to redeem invite code: %w", err)
		}
	}
	return role, nil
}

// ListAll は全招待コードの一覧を作成日時の降順で返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.InviteCode, error) {
	return s.inviteRepo.ListAll(ctx)
}

// generateCode は推測困難な招待コードを生成する。
// URLセーフなbase64（パディングなし）で32文字になる。
func generateCode() (string, error) {
	buf := make([]byte, codeEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
