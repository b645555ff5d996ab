// Package user はユーザーの承認と一覧の管理機能を提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/equipman/internal/model"
	"github.com/hitoshi/equipman/internal/repository"
)

// AuditRecorder は監査証跡の記録インターフェース。
type AuditRecorder interface {
	Record(ctx context.Context, entityType, entityID string, action model.AuditAction, changes map[string]any, actor *model.User)
}

// Service はユーザー管理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	auditor  AuditRecorder
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, auditor AuditRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		auditor:  auditor,
	}
}

// Approve は指定ユーザーを承認済みにし、監査ログに記録する。
// 既に承認済みのユーザーへの再実行も成功する（冪等）。
// その場合も承認操作として監査ログには残る。
func (s *Service) Approve(ctx context.Context, userID string, approver *model.User) (*model.User, error) {
	if err := s.userRepo.Approve(ctx, userID, approver.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	approved, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approved user: %w", err)
	}
	if approved == nil {
		return nil, model.NewUserNotFoundError()
	}

	s.auditor.Record(ctx, "user", userID, model.AuditActionApprove,
		map[string]any{"approved": true, "approved_by": approver.ID}, approver)

	slog.Info("user approved",
		slog.String("user_id", userID),
		slog.String("approved_by", approver.ID),
	)

	return approved, nil
}

// ListPending は承認待ちユーザーの一覧を作成日時の昇順で返す。
func (s *Service) ListPending(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.ListPending(ctx)
}

// ListAll は全ユーザーの一覧を作成日時の昇順で返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.ListAll(ctx)
}
