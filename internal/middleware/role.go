package middleware

import (
	"net/http"

	"github.com/hitoshi/equipman/internal/auth"
	"github.com/hitoshi/equipman/internal/model"
)

// RequireRole は認証済みユーザーのロールが許可集合に含まれる場合のみ
// 次のハンドラーへ進めるミドルウェアを返す。
// 認証ミドルウェアの後段に配置すること。
// ロール不足は403 Forbiddenを返す。
func RequireRole(allowedRoles ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenMalformedError())
				return
			}

			if err := auth.Authorize(user, allowedRoles...); err != nil {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
