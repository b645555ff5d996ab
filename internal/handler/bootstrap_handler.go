package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/equipman/internal/bootstrap"
)

// BootstrapServiceInterface は初期化ハンドラーが必要とするサービスインターフェース。
type BootstrapServiceInterface interface {
	InitAdmin(ctx context.Context) (*bootstrap.InitResult, error)
}

// BootstrapHandler は初回セットアップのHTTPハンドラー。
// 管理者が存在しない空のデータベースに対してのみ成功するため認証不要。
type BootstrapHandler struct {
	service BootstrapServiceInterface
}

// NewBootstrapHandler はBootstrapHandlerを生成する。
func NewBootstrapHandler(service BootstrapServiceInterface) *BootstrapHandler {
	return &BootstrapHandler{service: service}
}

// initAdminResponse は初期化成功時のレスポンス。
type initAdminResponse struct {
	Admin         userResponse   `json:"admin"`
	StarterInvite inviteResponse `json:"starter_invite"`
}

// InitAdmin は初期管理者と最初の招待コードを作成する。
// 既に管理者が存在する場合は400を返す。
// POST /api/init-admin
func (h *BootstrapHandler) InitAdmin(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.InitAdmin(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, initAdminResponse{
		Admin:         toUserResponse(result.Admin),
		StarterInvite: toInviteResponse(result.StarterInvite),
	})
}
