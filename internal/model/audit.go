package model

import "time"

// AuditAction は監査ログに記録される操作種別を表す。
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionApprove AuditAction = "approve"
)

// AuditEntry は状態変更1件の不変レコードを表す。
// 実行者の情報（ID・名前・メールアドレス）は参照ではなくスナップショット。
// 後からユーザーが変更・削除されてもエントリの帰属は変わらない。
type AuditEntry struct {
	ID         string
	EntityType string // user, product, invite_code
	EntityID   string
	Action     AuditAction
	Changes    map[string]any
	ActorID    string
	ActorName  string
	ActorEmail string
	Timestamp  time.Time
}

// AuditFilter は監査ログ照会の絞り込み条件。
// ゼロ値フィールドは条件なしとして扱う。両方指定した場合はAND。
type AuditFilter struct {
	EntityType string
	EntityID   string
}
