package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/equipman/internal/middleware"
	"github.com/hitoshi/equipman/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenValidator    middleware.TokenValidator
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusObserver    middleware.StatusObserver

	// サービス
	AuthService      AuthServiceInterface
	AuthMetrics      AuthMetrics
	UserService      UserServiceInterface
	InviteService    InviteServiceInterface
	ProductService   ProductServiceInterface
	AuditService     AuditQueryInterface
	BootstrapService BootstrapServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (Auth → RateLimit(General) → RequireRole)
//
// 認証不要のルート（登録・ログイン・招待コード検証・初期化）はIPごとの
// 認証レート制限のみを通し、認証チェーンの外に配置する。
//
// ロールとアクセス権の対応:
//
//	機器の参照       - 承認済みの全ロール
//	機器の作成・変更・削除、監査ログの照会 - admin、editor
//	ユーザー・招待コードの管理 - adminのみ
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusObserver))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthMetrics)
	userHandler := NewUserHandler(deps.UserService)
	inviteHandler := NewInviteHandler(deps.InviteService)
	productHandler := NewProductHandler(deps.ProductService)
	auditHandler := NewAuditHandler(deps.AuditService)
	bootstrapHandler := NewBootstrapHandler(deps.BootstrapService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// 登録・ログイン・事前チェック・初期化（IPごとのレート制限つき）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
		r.Post("/api/invites/validate", inviteHandler.Validate)
		r.Post("/api/init-admin", bootstrapHandler.InitAdmin)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenValidator, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/me", authHandler.Me)

		// 機器管理
		r.Route("/api/products", func(r chi.Router) {
			// 参照は承認済みの全ロール
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)

			// 変更はadmin・editorのみ
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin, model.RoleEditor))

				r.Post("/", productHandler.Create)
				r.Patch("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
			})
		})

		// 監査ログ照会（admin・editor）
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin, model.RoleEditor))

			r.Get("/api/audit-logs", auditHandler.List)
		})

		// 管理者専用ルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))

			// ユーザー管理
			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", userHandler.ListAll)
				r.Get("/pending", userHandler.ListPending)
				r.Post("/{id}/approve", userHandler.Approve)
			})

			// 招待コード管理
			r.Route("/api/invites", func(r chi.Router) {
				r.Post("/", inviteHandler.Create)
				r.Get("/", inviteHandler.ListAll)
			})
		})
	})

	return r
}
