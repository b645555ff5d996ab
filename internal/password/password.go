// Package password はパスワードのハッシュ化と検証を提供する。
package password

import "golang.org/x/crypto/bcrypt"

// Hasher はbcryptによるパスワードハッシュ化を提供する。
// コストは環境に応じて調整できるようコンストラクタで受け取る。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。costが0以下の場合はbcryptのデフォルトコストを使用する。
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文パスワードのbcryptダイジェストを返す。
// 平文はこの関数の外に永続化もログ出力もしないこと。
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify は平文パスワードとダイジェストの一致を検証する。
// 不正な形式のダイジェストを含め、不一致はすべてfalseを返す（エラーは返さない）。
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
