package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/equipman/internal/auth"
	"github.com/hitoshi/equipman/internal/bootstrap"
	"github.com/hitoshi/equipman/internal/middleware"
	"github.com/hitoshi/equipman/internal/model"
)

// --- モック ---

// stubUsers はトークン文字列をそのままユーザーIDとして解決する検証器と、
// 固定のユーザーストアを提供する。
type stubUsers struct {
	users map[string]*model.User
}

func (m *stubUsers) Validate(tokenString string) (string, error) {
	if _, ok := m.users[tokenString]; !ok {
		return "", model.NewTokenMalformedError()
	}
	return tokenString, nil
}

func (m *stubUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

type stubUserService struct{}

func (stubUserService) Approve(ctx context.Context, userID string, approver *model.User) (*model.User, error) {
	return &model.User{ID: userID, Approved: true}, nil
}
func (stubUserService) ListPending(ctx context.Context) ([]*model.User, error) {
	return []*model.User{}, nil
}
func (stubUserService) ListAll(ctx context.Context) ([]*model.User, error) {
	return []*model.User{}, nil
}

type stubInviteService struct{}

func (stubInviteService) Create(ctx context.Context, creator *model.User, role model.Role, maxUses int, ttl time.Duration) (*model.InviteCode, error) {
	return &model.InviteCode{Code: "NEW", RoleAssigned: role, MaxUses: 1, UsedBy: []string{}}, nil
}
func (stubInviteService) Validate(ctx context.Context, code string) (model.Role, error) {
	return model.RoleUser, nil
}
func (stubInviteService) ListAll(ctx context.Context) ([]*model.InviteCode, error) {
	return []*model.InviteCode{}, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, p *model.Product, actor *model.User) (*model.Product, error) {
	p.ID = "prod-1"
	return p, nil
}
func (stubProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	return &model.Product{ID: id}, nil
}
func (stubProductService) List(ctx context.Context) ([]*model.Product, error) {
	return []*model.Product{}, nil
}
func (stubProductService) Update(ctx context.Context, id string, changes map[string]any, actor *model.User) (*model.Product, error) {
	return &model.Product{ID: id}, nil
}
func (stubProductService) Delete(ctx context.Context, id string, actor *model.User) error {
	return nil
}

type stubAuditService struct{}

func (stubAuditService) Query(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error) {
	return []*model.AuditEntry{}, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	return &model.User{ID: "new-user", Email: input.Email, Role: model.RoleUser}, nil
}
func (stubAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	return "token", &model.User{ID: "user-1", Email: email, Approved: true}, nil
}

type stubBootstrapService struct{}

func (stubBootstrapService) InitAdmin(ctx context.Context) (*bootstrap.InitResult, error) {
	return &bootstrap.InitResult{
		Admin:         &model.User{ID: "admin-1", Role: model.RoleAdmin, Approved: true},
		StarterInvite: &model.InviteCode{Code: "STARTER", RoleAssigned: model.RoleEditor, UsedBy: []string{}},
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	users := &stubUsers{users: map[string]*model.User{
		"admin-token":  {ID: "admin-token", Role: model.RoleAdmin, Approved: true},
		"editor-token": {ID: "editor-token", Role: model.RoleEditor, Approved: true},
		"user-token":   {ID: "user-token", Role: model.RoleUser, Approved: true},
	}}

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		AuthRate:        rate.Limit(1000),
		AuthBurst:       1000,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		TokenValidator:    users,
		UserFinder:        users,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),

		AuthService:      stubAuthService{},
		UserService:      stubUserService{},
		InviteService:    stubInviteService{},
		ProductService:   stubProductService{},
		AuditService:     stubAuditService{},
		BootstrapService: stubBootstrapService{},
	})
}

func doRequest(t *testing.T, router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- テスト ---

// TestRouter_RoleMatrix はエンドポイントごとのロール制御を検証する。
func TestRouter_RoleMatrix(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		token  string
		want   int
	}{
		// 機器の参照は承認済みの全ロール
		{"userは機器一覧を参照できる", http.MethodGet, "/api/products", "", "user-token", http.StatusOK},
		{"editorは機器一覧を参照できる", http.MethodGet, "/api/products", "", "editor-token", http.StatusOK},
		{"adminは機器一覧を参照できる", http.MethodGet, "/api/products", "", "admin-token", http.StatusOK},

		// 機器の変更はadmin・editorのみ
		{"editorは機器を作成できる", http.MethodPost, "/api/products", `{"tag":"T"}`, "editor-token", http.StatusCreated},
		{"userは機器を作成できない", http.MethodPost, "/api/products", `{"tag":"T"}`, "user-token", http.StatusForbidden},
		{"userは機器を更新できない", http.MethodPatch, "/api/products/p1", `{"tag":"T"}`, "user-token", http.StatusForbidden},
		{"userは機器を削除できない", http.MethodDelete, "/api/products/p1", "", "user-token", http.StatusForbidden},
		{"adminは機器を削除できる", http.MethodDelete, "/api/products/p1", "", "admin-token", http.StatusNoContent},

		// 管理ルートはadminのみ
		{"adminはユーザー一覧を参照できる", http.MethodGet, "/api/users", "", "admin-token", http.StatusOK},
		{"editorはユーザー一覧を参照できない", http.MethodGet, "/api/users", "", "editor-token", http.StatusForbidden},
		{"editorは承認できない", http.MethodPost, "/api/users/u1/approve", "", "editor-token", http.StatusForbidden},
		{"adminは承認できる", http.MethodPost, "/api/users/u1/approve", "", "admin-token", http.StatusOK},
		{"editorは招待コードを発行できない", http.MethodPost, "/api/invites", `{"role":"user"}`, "editor-token", http.StatusForbidden},
		{"adminは招待コードを発行できる", http.MethodPost, "/api/invites", `{"role":"user"}`, "admin-token", http.StatusCreated},
		// 監査ログはadmin・editor
		{"adminは監査ログを参照できる", http.MethodGet, "/api/audit-logs", "", "admin-token", http.StatusOK},
		{"editorは監査ログを参照できる", http.MethodGet, "/api/audit-logs", "", "editor-token", http.StatusOK},
		{"userは監査ログを参照できない", http.MethodGet, "/api/audit-logs", "", "user-token", http.StatusForbidden},

		// 未認証
		{"未認証は機器を参照できない", http.MethodGet, "/api/products", "", "", http.StatusUnauthorized},
		{"不正トークンは拒否される", http.MethodGet, "/api/products", "", "bad-token", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, tc.method, tc.target, tc.token, tc.body)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

// TestRouter_PublicRoutes は認証不要ルートがトークンなしで利用できることを検証する。
func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/api/auth/register", `{"email":"a@example.com","password":"pw","invite_code":"C"}`, http.StatusCreated},
		{http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"pw"}`, http.StatusOK},
		{http.MethodPost, "/api/invites/validate", `{"code":"C"}`, http.StatusOK},
		{http.MethodPost, "/api/init-admin", "", http.StatusCreated},
	}

	for _, tc := range cases {
		rec := doRequest(t, router, tc.method, tc.target, "", tc.body)
		if rec.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d: %s", tc.method, tc.target, tc.want, rec.Code, rec.Body.String())
		}
	}
}

// TestRouter_CORSPreflight はOPTIONSプリフライトが204で応答することを検証する。
func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodOptions, "/api/products", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow-origin: %s", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Error("expected Authorization in allowed headers")
	}
}

// TestRouter_SecurityHeaders は全レスポンスにセキュリティヘッダーが付与されることを検証する。
func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected DENY, got %q", got)
	}
}
