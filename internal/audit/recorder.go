// Package audit は状態変更の監査証跡の記録と照会を提供する。
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/equipman/internal/model"
	"github.com/hitoshi/equipman/internal/repository"
)

// defaultQueryLimit は照会1回あたりの最大件数。
const defaultQueryLimit = 1000

// FailureCounter は監査書き込み失敗のメトリクス記録インターフェース。
type FailureCounter interface {
	RecordAuditWriteFailure()
}

// Recorder は監査証跡のサービス層。
// 記録はベストエフォートであり、失敗しても呼び出し元の操作は失敗させない。
type Recorder struct {
	repo    repository.AuditRepository
	counter FailureCounter
}

// NewRecorder はRecorderを生成する。counterはnilでもよい。
func NewRecorder(repo repository.AuditRepository, counter FailureCounter) *Recorder {
	return &Recorder{
		repo:    repo,
		counter: counter,
	}
}

// Record は状態変更1件を監査ログに追記する。
// 実行者の情報はスナップショットとして保存され、後からユーザーが
// 変更・削除されてもエントリの帰属は変わらない。
// 書き込み失敗は呼び出し元に伝播させず、エラーログとメトリクスで運用者に通知する。
// 監査は付加的な可観測性であり、主たる変更をロールバックする理由にはならない。
func (r *Recorder) Record(ctx context.Context, entityType, entityID string, action model.AuditAction, changes map[string]any, actor *model.User) {
	entry := &model.AuditEntry{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorEmail: actor.Email,
		Timestamp:  time.Now().UTC(),
	}

	if err := r.repo.Insert(ctx, entry); err != nil {
		slog.Error("failed to write audit entry",
			slog.String("error", err.Error()),
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID),
			slog.String("action", string(action)),
			slog.String("actor_id", actor.ID),
		)
		if r.counter != nil {
			r.counter.RecordAuditWriteFailure()
		}
	}
}

// Query はフィルタに合致する監査エントリを新しい順で返す。
// entityType / entityIDはそれぞれ独立に指定でき、空なら条件なし。
func (r *Recorder) Query(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error) {
	return r.repo.List(ctx, filter, defaultQueryLimit)
}
