package model

import "time"

// InviteCode は登録を制御する招待コードを表す。
// コードは暗号論的乱数から生成される推測困難な値。
// 冗長利用（max_uses回まで）と有効期限の両方で制御される。
type InviteCode struct {
	Code         string
	CreatedBy    string
	RoleAssigned Role
	CreatedAt    time.Time
	ExpiresAt    time.Time
	MaxUses      int
	UsedCount    int
	UsedBy       []string
}

// Expired は基準時刻において招待コードが期限切れかどうかを返す。
// 期限切れのコードは残り使用回数があっても恒久的に利用不可。
func (c *InviteCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Exhausted は使用回数が上限に達しているかどうかを返す。
func (c *InviteCode) Exhausted() bool {
	return c.UsedCount >= c.MaxUses
}
