package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/equipman/internal/model"
)

// --- モック ---

type mockTokenValidator struct {
	validateFn func(tokenString string) (string, error)
}

func (m *mockTokenValidator) Validate(tokenString string) (string, error) {
	return m.validateFn(tokenString)
}

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func approvedUserFinder(user *model.User) *mockUserFinder {
	return &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return user, nil
		},
	}
}

// --- テスト ---

// TestAuthMiddleware は有効なトークンでユーザーがコンテキストに注入されることを検証する。
func TestAuthMiddleware(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (string, error) {
			if tokenString != "valid-token" {
				t.Errorf("unexpected token: %s", tokenString)
			}
			return "user-1", nil
		},
	}
	finder := approvedUserFinder(&model.User{ID: "user-1", Approved: true, Role: model.RoleEditor})

	var gotUser *model.User
	handler := NewAuthMiddleware(validator, finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser == nil || gotUser.ID != "user-1" {
		t.Errorf("expected user-1 in context, got %+v", gotUser)
	}
}

// TestAuthMiddleware_MissingHeader はAuthorizationヘッダーなしが401になることを検証する。
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (string, error) {
			t.Fatal("validator must not be called without a bearer token")
			return "", nil
		},
	}
	finder := approvedUserFinder(nil)

	handler := NewAuthMiddleware(validator, finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

// TestAuthMiddleware_ExpiredToken は期限切れトークンが401とTOKEN_EXPIREDになることを検証する。
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (string, error) {
			return "", model.NewTokenExpiredError()
		},
	}
	handler := NewAuthMiddleware(validator, approvedUserFinder(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeTokenExpired {
		t.Errorf("expected TOKEN_EXPIRED, got %s", body.Code)
	}
}

// TestAuthMiddleware_UserDeleted はユーザーが削除済みの場合に401になることを検証する。
func TestAuthMiddleware_UserDeleted(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (string, error) { return "ghost", nil },
	}
	handler := NewAuthMiddleware(validator, approvedUserFinder(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer orphan-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestAuthMiddleware_PendingUser は未承認ユーザーが403とPENDING_APPROVALになることを検証する。
// 承認前に発行されたトークンを持っていてもアクセスできない。
func TestAuthMiddleware_PendingUser(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (string, error) { return "user-1", nil },
	}
	finder := approvedUserFinder(&model.User{ID: "user-1", Approved: false})

	handler := NewAuthMiddleware(validator, finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer pending-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodePendingApproval {
		t.Errorf("expected PENDING_APPROVAL, got %s", body.Code)
	}
}

// TestUserFromContext_Missing は未認証コンテキストからの取得がエラーになることを検証する。
func TestUserFromContext_Missing(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user")
	}
}
