package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/floodwatch/internal/metrics"
	"github.com/hitoshi/floodwatch/internal/middleware"
	"github.com/hitoshi/floodwatch/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	CORSAllowedOrigin string
	Logger            *slog.Logger

	AuthService   AuthServiceInterface
	ReportService ReportServiceInterface

	// Health は/healthで疎通を確認するストア。nilの場合は常にokを返す。
	Health repository.HealthChecker

	// Metrics はHTTPリクエストの記録先。MetricsHandlerは/metricsで公開するハンドラー。
	// どちらもnilの場合は計測しない。
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Metrics → Recovery → SecurityHeaders → CORS
//
// Recoveryをログとメトリクスの内側に置き、panicしたリクエストも500として記録する。
//
// 認証・報告のルートはいずれも資格情報なしで到達できる。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metrics.NewHTTPMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	reportHandler := NewReportHandler(deps.ReportService)

	r.Get("/health", NewHealthHandler(deps.Health))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/google", authHandler.GoogleLogin)
		r.Post("/forgot-password", authHandler.ForgotPassword)
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/", reportHandler.ListReports)
		r.Post("/", reportHandler.CreateReport)
		r.Put("/{id}/resolve", reportHandler.ResolveReport)
	})

	return r
}
