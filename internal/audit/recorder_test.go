package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/equipman/internal/model"
)

// --- モック ---

type mockAuditRepo struct {
	insertFn func(ctx context.Context, entry *model.AuditEntry) error
	listFn   func(ctx context.Context, filter model.AuditFilter, limit int) ([]*model.AuditEntry, error)
}

func (m *mockAuditRepo) Insert(ctx context.Context, entry *model.AuditEntry) error {
	return m.insertFn(ctx, entry)
}
func (m *mockAuditRepo) List(ctx context.Context, filter model.AuditFilter, limit int) ([]*model.AuditEntry, error) {
	return m.listFn(ctx, filter, limit)
}

type mockFailureCounter struct {
	failures int
}

func (m *mockFailureCounter) RecordAuditWriteFailure() {
	m.failures++
}

var testActor = &model.User{ID: "admin-1", Name: "Admin", Email: "admin@system.com", Role: model.RoleAdmin}

// --- テスト ---

// TestRecorder_Record は監査エントリの組み立てと書き込みを検証する。
func TestRecorder_Record(t *testing.T) {
	var stored *model.AuditEntry
	repo := &mockAuditRepo{
		insertFn: func(ctx context.Context, entry *model.AuditEntry) error {
			stored = entry
			return nil
		},
	}
	rec := NewRecorder(repo, nil)

	rec.Record(context.Background(), "product", "prod-1", model.AuditActionUpdate,
		map[string]any{"region": "north"}, testActor)

	if stored == nil {
		t.Fatal("expected entry to be written")
	}
	if stored.ID == "" {
		t.Error("expected generated entry ID")
	}
	if stored.EntityType != "product" || stored.EntityID != "prod-1" {
		t.Errorf("unexpected target: %s/%s", stored.EntityType, stored.EntityID)
	}
	if stored.Action != model.AuditActionUpdate {
		t.Errorf("unexpected action: %s", stored.Action)
	}
	if stored.ActorID != "admin-1" || stored.ActorName != "Admin" || stored.ActorEmail != "admin@system.com" {
		t.Errorf("expected actor snapshot, got %+v", stored)
	}
	if stored.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

// TestRecorder_Record_FailureDoesNotPropagate は書き込み失敗が呼び出し元に
// 影響せず、メトリクスに記録されることを検証する。
func TestRecorder_Record_FailureDoesNotPropagate(t *testing.T) {
	repo := &mockAuditRepo{
		insertFn: func(ctx context.Context, entry *model.AuditEntry) error {
			return errors.New("db down")
		},
	}
	counter := &mockFailureCounter{}
	rec := NewRecorder(repo, counter)

	// panicせず正常に戻ることだけを確認する（Recordはエラーを返さない）
	rec.Record(context.Background(), "user", "user-1", model.AuditActionApprove, nil, testActor)

	if counter.failures != 1 {
		t.Errorf("expected 1 recorded failure, got %d", counter.failures)
	}
}

// TestRecorder_Query は照会がデフォルト上限つきで委譲されることを検証する。
func TestRecorder_Query(t *testing.T) {
	var gotFilter model.AuditFilter
	var gotLimit int
	repo := &mockAuditRepo{
		listFn: func(ctx context.Context, filter model.AuditFilter, limit int) ([]*model.AuditEntry, error) {
			gotFilter = filter
			gotLimit = limit
			return []*model.AuditEntry{{ID: "e1"}}, nil
		},
	}
	rec := NewRecorder(repo, nil)

	entries, err := rec.Query(context.Background(), model.AuditFilter{EntityType: "product"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
	if gotFilter.EntityType != "product" {
		t.Errorf("unexpected filter: %+v", gotFilter)
	}
	if gotLimit != 1000 {
		t.Errorf("expected default limit 1000, got %d", gotLimit)
	}
}
