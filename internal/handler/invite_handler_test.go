package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/equipman/internal/middleware"
	"github.com/hitoshi/equipman/internal/model"
)

// --- モック ---

type mockInviteManageService struct {
	createFn   func(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error)
	validateFn func(ctx context.Context, code string) (model.Role, error)
	listAllFn  func(ctx context.Context) ([]*model.InviteCode, error)
}

func (m *mockInviteManageService) Create(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error) {
	return m.createFn(ctx, creator, role, maxUses, ttl)
}
func (m *mockInviteManageService) Validate(ctx context.Context, code string) (model.Role, error) {
	return m.validateFn(ctx, code)
}
func (m *mockInviteManageService) ListAll(ctx context.Context) ([]*model.InviteCode, error) {
	return m.listAllFn(ctx)
}

// --- テスト ---

// TestInviteHandler_Create は発行リクエストの日数がTTLに変換されて渡ることを検証する。
func TestInviteHandler_Create(t *testing.T) {
	now := time.Now().UTC()
	svc := &mockInviteManageService{
		createFn: func(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error) {
			if creator.ID != "admin-1" {
				t.Errorf("unexpected creator: %s", creator.ID)
			}
			if role != model.RoleEditor {
				t.Errorf("unexpected role: %s", role)
			}
			if maxUses != 5 {
				t.Errorf("unexpected max uses: %d", maxUses)
			}
			if ttl != 14*24*time.Hour {
				t.Errorf("unexpected ttl: %v", ttl)
			}
			return &model.InviteCode{
				Code:         "GENERATED",
				CreatedBy:    creator.ID,
				RoleAssigned: role,
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
				MaxUses:      maxUses,
			}, nil
		},
	}
	h := NewInviteHandler(svc)

	body := `{"role":"editor","expires_in_days":14,"max_uses":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites", strings.NewReader(body))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), testAdmin))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp inviteResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Code != "GENERATED" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
	if resp.UsedBy == nil {
		t.Error("expected used_by to be an empty array, not null")
	}
}

// TestInviteHandler_Create_InvalidRole は不正なロール指定が400になることを検証する。
func TestInviteHandler_Create_InvalidRole(t *testing.T) {
	svc := &mockInviteManageService{
		createFn: func(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error) {
			return nil, model.NewInvalidRoleError(string(role))
		},
	}
	h := NewInviteHandler(svc)

	body := `{"role":"superuser"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites", strings.NewReader(body))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), testAdmin))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// TestInviteHandler_Validate は有効なコードの事前チェックが成功することを検証する。
func TestInviteHandler_Validate(t *testing.T) {
	svc := &mockInviteManageService{
		validateFn: func(ctx context.Context, code string) (model.Role, error) {
			if code != "CHECK-ME" {
				t.Errorf("unexpected code: %s", code)
			}
			return model.RoleEditor, nil
		},
	}
	h := NewInviteHandler(svc)

	body := `{"code":"CHECK-ME"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Validate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp validateInviteResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !resp.Valid {
		t.Error("expected valid=true")
	}
	if resp.RoleAssigned != "editor" {
		t.Errorf("unexpected role: %s", resp.RoleAssigned)
	}
}

// TestInviteHandler_Validate_Invalid は利用できないコードが200のvalid:falseで
// 返ることを検証する。事前チェックはフォーム表示用であり、エラーにはしない。
func TestInviteHandler_Validate_Invalid(t *testing.T) {
	svc := &mockInviteManageService{
		validateFn: func(ctx context.Context, code string) (model.Role, error) {
			return "", model.NewInvalidInviteError("期限切れ")
		},
	}
	h := NewInviteHandler(svc)

	body := `{"code":"EXPIRED"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Validate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp validateInviteResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Valid {
		t.Error("expected valid=false")
	}
	if resp.Message == "" {
		t.Error("expected message for invalid code")
	}
	if resp.RoleAssigned != "" {
		t.Errorf("expected empty role for invalid code, got %s", resp.RoleAssigned)
	}
}

// TestInviteHandler_Validate_RepoError は分類できない失敗が500になることを検証する。
func TestInviteHandler_Validate_RepoError(t *testing.T) {
	svc := &mockInviteManageService{
		validateFn: func(ctx context.Context, code string) (model.Role, error) {
			return "", errors.New("db down")
		},
	}
	h := NewInviteHandler(svc)

	body := `{"code":"ANY"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invites/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Validate(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// TestInviteHandler_ListAll は招待コード一覧が返ることを検証する。
func TestInviteHandler_ListAll(t *testing.T) {
	now := time.Now().UTC()
	svc := &mockInviteManageService{
		listAllFn: func(ctx context.Context) ([]*model.InviteCode, error) {
			return []*model.InviteCode{
				{Code: "A", RoleAssigned: model.RoleEditor, CreatedAt: now, ExpiresAt: now, MaxUses: 1, UsedCount: 1, UsedBy: []string{"u1"}},
				{Code: "B", RoleAssigned: model.RoleUser, CreatedAt: now, ExpiresAt: now, MaxUses: 10},
			}, nil
		},
	}
	h := NewInviteHandler(svc)

	rec := httptest.NewRecorder()
	h.ListAll(rec, adminRequest(http.MethodGet, "/api/invites"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []inviteResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(resp))
	}
	if len(resp[0].UsedBy) != 1 || resp[0].UsedBy[0] != "u1" {
		t.Errorf("unexpected used_by: %+v", resp[0].UsedBy)
	}
	if resp[1].UsedBy == nil {
		t.Error("expected used_by to be an empty array, not null")
	}
}
