package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kodflix/kodflix/internal/metrics"
	"github.com/kodflix/kodflix/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	AccountFinder     middleware.AccountFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RequestTimeout    time.Duration

	// 認証
	AuthService AuthServiceInterface

	// 運用系
	HealthPinger Pinger
	Metrics      *metrics.Collector
	Gatherer     prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Timeout
//
// 登録・ログインは未認証のためIPベースのレート制限のみを適用し、
// /api/auth/me は認証ミドルウェア（Authorization Gate）の内側に配置する。
// /health と /metrics はレート制限・認証いずれの対象にもしない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 型付きnilがインターフェースのnil判定をすり抜けないように詰め替える
	var statusRecorder middleware.StatusRecorder
	if deps.Metrics != nil {
		statusRecorder = deps.Metrics
	}
	r.Use(middleware.NewLoggingMiddleware(slog.Default(), statusRecorder))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.NewTimeoutMiddleware(deps.RequestTimeout))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	healthHandler := NewHealthHandler(deps.HealthPinger)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Health)
	r.Get("/api/health", healthHandler.Health)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		// 未認証エンドポイントはIPベースのレート制限を適用
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.AuthMiddleware())
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.AccountFinder))
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
