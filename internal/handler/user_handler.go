package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/equipman/internal/middleware"
	"github.com/hitoshi/equipman/internal/model"
)

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Approve(ctx context.Context, userID string, approver *model.User) (*model.User, error)
	ListPending(ctx context.Context) ([]*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。管理者専用ルートで使用される。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// ListPending は承認待ちユーザーの一覧を返す。
// GET /api/users/pending
func (h *UserHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListPending(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserListResponse(users))
}

// ListAll は全ユーザーの一覧を返す。
// GET /api/users
func (h *UserHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserListResponse(users))
}

// Approve は指定ユーザーを承認する。再実行しても成功する（冪等）。
// POST /api/users/{id}/approve
func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	approver, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenMalformedError())
		return
	}

	userID := chi.URLParam(r, "id")

	approved, err := h.service.Approve(r.Context(), userID, approver)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(approved))
}

// toUserListResponse はユーザーのスライスをAPIレスポンスに変換する。
// 空の場合もnullではなく空配列を返す。
func toUserListResponse(users []*model.User) []userResponse {
	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	return results
}
