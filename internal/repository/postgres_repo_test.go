package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hitoshi/equipman/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresInviteRepoはInviteRepositoryインターフェースを満たすことを検証
func TestPostgresInviteRepo_ImplementsInterface(t *testing.T) {
	var _ InviteRepository = (*PostgresInviteRepo)(nil)
}

// PostgresProductRepoはProductRepositoryインターフェースを満たすことを検証
func TestPostgresProductRepo_ImplementsInterface(t *testing.T) {
	var _ ProductRepository = (*PostgresProductRepo)(nil)
}

// PostgresAuditRepoはAuditRepositoryインターフェースを満たすことを検証
func TestPostgresAuditRepo_ImplementsInterface(t *testing.T) {
	var _ AuditRepository = (*PostgresAuditRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresInviteRepoが正しく初期化されることを検証
func TestNewPostgresInviteRepo_Initializes(t *testing.T) {
	repo := NewPostgresInviteRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresProductRepoが正しく初期化されることを検証
func TestNewPostgresProductRepo_Initializes(t *testing.T) {
	repo := NewPostgresProductRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresAuditRepoが正しく初期化されることを検証
func TestNewPostgresAuditRepo_Initializes(t *testing.T) {
	repo := NewPostgresAuditRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ユニットテスト: 部分更新の許可リストがメタデータカラムを含まないこと
// （DB接続なしでロジックのみ検証）
func TestUpdatableColumns_ExcludeMetadata(t *testing.T) {
	for _, col := range []string{"id", "created_by", "created_at", "updated_at"} {
		if updatableColumns[col] {
			t.Errorf("column %s must not be updatable", col)
		}
	}
}

// JSONBカラムはすべて更新許可リストに含まれることを検証
func TestJSONBColumns_AreUpdatable(t *testing.T) {
	for col := range jsonbColumns {
		if !updatableColumns[col] {
			t.Errorf("jsonb column %s is missing from updatable columns", col)
		}
	}
}

// marshalComponentsがアンプ未設定時にnullではなく空配列を格納することを検証
func TestMarshalComponents_EmptyAmplifiers(t *testing.T) {
	p := &model.Product{}

	_, _, _, _, amplifiers, err := marshalComponents(p)
	if err != nil {
		t.Fatalf("marshalComponents returned error: %v", err)
	}
	if string(amplifiers) != "[]" {
		t.Errorf("expected empty array for amplifiers, got %s", amplifiers)
	}

	var amps []model.SerialComponent
	if err := json.Unmarshal(amplifiers, &amps); err != nil {
		t.Fatalf("failed to unmarshal amplifiers: %v", err)
	}
	if amps == nil || len(amps) != 0 {
		t.Errorf("expected empty slice, got %v", amps)
	}
}

// 招待コードの消費が空振りした場合の分類順序の期待動作
// （期限切れと上限到達が同時に成立する場合は期限切れを優先する）
func TestRedeemInvite_Classification_Concept(t *testing.T) {
	now := time.Now()
	invite := &model.InviteCode{
		Code:      "stale",
		ExpiresAt: now.Add(-1 * time.Hour),
		MaxUses:   1,
		UsedCount: 1,
	}

	if !invite.Expired(now) {
		t.Error("expected invite to be expired")
	}
	if !invite.Exhausted() {
		t.Error("expected invite to be exhausted")
	}
}
