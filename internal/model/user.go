// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
// admin / editor / user の3種類の固定列挙。
type Role string

const (
	// RoleAdmin は全操作（ユーザー承認、招待コード発行を含む）が可能なロール。
	RoleAdmin Role = "admin"
	// RoleEditor は機器レコードの作成・更新・削除が可能なロール。
	RoleEditor Role = "editor"
	// RoleUser は機器レコードの閲覧のみ可能なロール。
	RoleUser Role = "user"
)

// ValidRole はロールが固定列挙のいずれかであるかを検証する。
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// User はサービス利用ユーザーを表す。
// PasswordHashは外部に絶対にシリアライズしないこと。
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	Approved     bool
	ApprovedBy   string // 承認した管理者のユーザーID（未承認なら空）
	PasswordHash string
	CreatedAt    time.Time
}
