package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/middleware"
	"github.com/hitoshi/notibac/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	HealthChecker     HealthChecker
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	CalendarService   CalendarServiceInterface
	PhoneService      PhoneServiceInterface
	PreferenceService PreferenceServiceInterface
	ReminderService   ReminderServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → User → RateLimit(General)
//
// /health と /metrics は認証不要。検証コードの照合・再送には専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError())
	})

	calendarHandler := NewCalendarHandler(deps.CalendarService)
	phoneHandler := NewPhoneHandler(deps.PhoneService)
	notificationHandler := NewNotificationHandler(deps.PreferenceService, deps.ReminderService)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: User → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewUserMiddleware(deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セクター・カレンダー
		r.Get("/api/sectors", calendarHandler.ListSectors)
		r.Get("/api/calendars/{id}/dates", calendarHandler.CollectionDates)

		// 電話番号
		r.Route("/api/phones", func(r chi.Router) {
			r.Get("/", phoneHandler.List)
			r.Post("/", phoneHandler.Add)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", phoneHandler.Delete)
				r.Post("/primary", phoneHandler.SetPrimary)

				// 検証コードの照合・再送（専用レート制限を追加）
				r.With(deps.RateLimiter.VerificationMiddleware()).Post("/verify", phoneHandler.Verify)
				r.With(deps.RateLimiter.VerificationMiddleware()).Post("/resend", phoneHandler.Resend)
			})
		})

		// 通知設定
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/", notificationHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", notificationHandler.Update)
				r.Delete("/", notificationHandler.Delete)
				r.Post("/toggle", notificationHandler.Toggle)
				r.Get("/reminders", notificationHandler.Reminders)
			})
		})
	})

	return r
}
