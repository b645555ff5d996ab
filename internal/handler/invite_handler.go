package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/equipman/internal/middleware"
	"github.com/hitoshi/equipman/internal/model"
)

// InviteServiceInterface は招待コードハンドラーが必要とするサービスインターフェース。
type InviteServiceInterface interface {
	Create(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error)
	Validate(ctx context.Context, code string) (model.Role, error)
	ListAll(ctx context.Context) ([]*model.InviteCode, error)
}

// InviteHandler は招待コード管理のHTTPハンドラー。
// 発行と一覧は管理者専用、検証は登録フォームから使うため認証不要。
type InviteHandler struct {
	service InviteServiceInterface
}

// NewInviteHandler はInviteHandlerを生成する。
func NewInviteHandler(service InviteServiceInterface) *InviteHandler {
	return &InviteHandler{service: service}
}

// createInviteRequest は招待コード発行リクエストのボディ。
// expires_in_daysとmax_usesは省略可能（デフォルト: 7日・1回）。
type createInviteRequest struct {
	Role          string `json:"role"`
	ExpiresInDays int    `json:"expires_in_days"`
	MaxUses       int    `json:"max_uses"`
}

// validateInviteRequest は招待コード検証リクエストのボディ。
type validateInviteRequest struct {
	Code string `json:"code"`
}

// inviteResponse は招待コード情報のAPIレスポンス。
type inviteResponse struct {
	Code         string   `json:"code"`
	CreatedBy    string   `json:"created_by"`
	RoleAssigned string   `json:"role_assigned"`
	CreatedAt    string   `json:"created_at"`
	ExpiresAt    string   `json:"expires_at"`
	MaxUses      int      `json:"max_uses"`
	UsedCount    int      `json:"used_count"`
	UsedBy       []string `json:"used_by"`
}

// validateInviteResponse は招待コード検証のレスポンス。
// 利用可能な場合はrole_assigned、利用不可の場合はmessageを返す。
type validateInviteResponse struct {
	Valid        bool   `json:"valid"`
	RoleAssigned string `json:"role_assigned,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Create は新しい招待コードを発行する。
// POST /api/invites
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	creator, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenMalformedError())
		return
	}

	var req createInviteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ttl := time.Duration(req.ExpiresInDays) * 24 * time.Hour

	invite, err := h.service.Create(r.Context(), creator, model.Role(req.Role), req.MaxUses, ttl)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toInviteResponse(invite))
}

// ListAll は全招待コードの一覧を返す。
// GET /api/invites
func (h *InviteHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	invites, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]inviteResponse, len(invites))
	for i, inv := range invites {
		results[i] = toInviteResponse(inv)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// Validate は招待コードが現時点で利用可能かを確認する。
// 登録フォームの事前チェック用であり、状態は変更しない。
// 利用できないコードもエラーではなく200のvalid:falseで返し、
// フォーム側がそのままプレビュー表示できるようにする。
// POST /api/invites/validate
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateInviteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	role, err := h.service.Validate(r.Context(), req.Code)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidInvite {
			writeJSONResponse(w, http.StatusOK, validateInviteResponse{
				Valid:   false,
				Message: apiErr.Message,
			})
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, validateInviteResponse{
		Valid:        true,
		RoleAssigned: string(role),
	})
}

// toInviteResponse はmodel.InviteCodeからAPIレスポンスに変換する。
func toInviteResponse(invite *model.InviteCode) inviteResponse {
	usedBy := invite.UsedBy
	if usedBy == nil {
		usedBy = []string{}
	}
	return inviteResponse{
		Code:         invite.Code,
		CreatedBy:    invite.CreatedBy,
		RoleAssigned: string(invite.RoleAssigned),
		CreatedAt:    invite.CreatedAt.Format(timeFormat),
		ExpiresAt:    invite.ExpiresAt.Format(timeFormat),
		MaxUses:      invite.MaxUses,
		UsedCount:    invite.UsedCount,
		UsedBy:       usedBy,
	}
}
