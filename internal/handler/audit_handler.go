package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/equipman/internal/model"
)

// AuditQueryInterface は監査ログハンドラーが必要とするサービスインターフェース。
type AuditQueryInterface interface {
	Query(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error)
}

// AuditHandler は監査ログ照会のHTTPハンドラー。admin・editorのルートで使用される。
type AuditHandler struct {
	service AuditQueryInterface
}

// NewAuditHandler はAuditHandlerを生成する。
func NewAuditHandler(service AuditQueryInterface) *AuditHandler {
	return &AuditHandler{service: service}
}

// auditEntryResponse は監査エントリのAPIレスポンス。
type auditEntryResponse struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	Changes    map[string]any `json:"changes"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	ActorEmail string         `json:"actor_email"`
	Timestamp  string         `json:"timestamp"`
}

// List はフィルタに合致する監査エントリを新しい順で返す。
// entity_type / entity_idクエリパラメータで絞り込める（どちらも省略可）。
// GET /api/audit-logs?entity_type=product&entity_id=xxx
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.AuditFilter{
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
	}

	entries, err := h.service.Query(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		changes := e.Changes
		if changes == nil {
			changes = map[string]any{}
		}
		results[i] = auditEntryResponse{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     string(e.Action),
			Changes:    changes,
			ActorID:    e.ActorID,
			ActorName:  e.ActorName,
			ActorEmail: e.ActorEmail,
			Timestamp:  e.Timestamp.Format(timeFormat),
		}
	}
	writeJSONResponse(w, http.StatusOK, results)
}
