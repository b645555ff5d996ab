package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, invite, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidInvite      = "INVALID_INVITE"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodePendingApproval    = "PENDING_APPROVAL"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenMalformed     = "TOKEN_MALFORMED"
	ErrCodeAdminExists        = "ADMIN_ALREADY_EXISTS"
)

// NewEmailTakenError は登録済みメールアドレスエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidInviteError は招待コードが利用できない場合のエラーを生成する。
// 未登録・期限切れ・使用上限到達のいずれもこのエラーに集約する。
func NewInvalidInviteError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInvite,
		Message:  fmt.Sprintf("招待コードが無効です: %s", reason),
		Category: "invite",
		Action:   "管理者から有効な招待コードを取得してください。",
	}
}

// NewInvalidRoleError は固定列挙にないロール指定エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには admin、editor、user のいずれかを指定してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス不明かパスワード不一致かは区別せず、常に同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewPendingApprovalError は管理者承認待ちエラーを生成する。
func NewPendingApprovalError() *APIError {
	return &APIError{
		Code:     ErrCodePendingApproval,
		Message:  "アカウントは管理者の承認待ちです。",
		Category: "auth",
		Action:   "管理者による承認をお待ちください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "必要な権限を持つアカウントでログインしてください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewProductNotFoundError は機器レコード未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された機器が見つかりません: %s", productID),
		Category: "validation",
		Action:   "機器IDを確認してください。",
	}
}

// NewTokenExpiredError は期限切れトークンエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewTokenMalformedError は不正トークンエラーを生成する。
// 署名不一致・構造不正のいずれもこのエラーに集約する。
func NewTokenMalformedError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenMalformed,
		Message:  "トークンが不正です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewAdminExistsError はブートストラップ重複実行エラーを生成する。
func NewAdminExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminExists,
		Message:  "管理者は既に初期化されています。",
		Category: "system",
		Action:   "既存の管理者アカウントでログインしてください。",
	}
}
