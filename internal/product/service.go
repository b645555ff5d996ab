// Package product は機器レコードのCRUD機能を提供する。
// すべての変更操作は監査証跡に記録される。
package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/equipman/internal/model"
	"github.com/hitoshi/equipman/internal/repository"
)

// entityType は監査ログ上のエンティティ種別。
const entityType = "product"

// AuditRecorder は監査証跡の記録インターフェース。
type AuditRecorder interface {
	Record(ctx context.Context, entityType, entityID string, action model.AuditAction, changes map[string]any, actor *model.User)
}

// FieldSanitizer は自由記述フィールドのサニタイズのインターフェース。
type FieldSanitizer interface {
	Sanitize(raw string) string
}

// Service は機器レコードのビジネスロジックを提供する。
type Service struct {
	productRepo repository.ProductRepository
	auditor     AuditRecorder
	sanitizer   FieldSanitizer
}

// NewService はServiceを生成する。
func NewService(productRepo repository.ProductRepository, auditor AuditRecorder, sanitizer FieldSanitizer) *Service {
	return &Service{
		productRepo: productRepo,
		auditor:     auditor,
		sanitizer:   sanitizer,
	}
}

// Create は機器レコードを作成し、監査ログに記録する。
// ID・作成者・作成日時はサーバー側で採番・設定する。
func (s *Service) Create(ctx context.Context, p *model.Product, actor *model.User) (*model.Product, error) {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.Notes = s.sanitizer.Sanitize(p.Notes)
	p.CreatedBy = actor.ID
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.auditor.Record(ctx, entityType, p.ID, model.AuditActionCreate,
		map[string]any{"tag": p.Tag, "unit_number": p.UnitNumber}, actor)

	return p, nil
}

// Get は指定IDの機器を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return p, nil
}

// List は全機器の一覧を作成日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Product, error) {
	return s.productRepo.List(ctx)
}

// Update はリクエストで明示されたフィールドのみを部分更新し、監査ログに記録する。
// changesのキーはストレージ上のカラム名。省略されたフィールドは変更しない。
// 変更内容はそのまま監査エントリのchangesとして残る。
func (s *Service) Update(ctx context.Context, id string, changes map[string]any, actor *model.User) (*model.Product, error) {
	if notes, ok := changes["notes"].(string); ok {
		changes["notes"] = s.sanitizer.Sanitize(notes)
	}

	if err := s.productRepo.Update(ctx, id, changes); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, model.NewProductNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find updated product: %w", err)
	}
	if updated == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	s.auditor.Record(ctx, entityType, id, model.AuditActionUpdate, changes, actor)

	return updated, nil
}

// Delete は指定IDの機器を削除し、監査ログに記録する。
func (s *Service) Delete(ctx context.Context, id string, actor *model.User) error {
	// 削除前のスナップショットを監査ログに残す
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if existing == nil {
		return model.NewProductNotFoundError(id)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return model.NewProductNotFoundError(id)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.auditor.Record(ctx, entityType, id, model.AuditActionDelete,
		map[string]any{"tag": existing.Tag, "unit_number": existing.UnitNumber}, actor)

	return nil
}
