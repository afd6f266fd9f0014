package api

import (
	"net/http"

	"vidoptimize/internal/logging"
	"vidoptimize/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router builds the complete HTTP handler of the service.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w, "Endpoint not found")
	})

	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.limiter.Middleware)
				r.Post("/register", s.RegisterHandler)
				r.Post("/login", s.LoginHandler)
				r.Post("/refresh", s.RefreshTokenHandler)
			})
			r.Group(func(r chi.Router) {
				r.Use(s.AuthMiddleware)
				r.Post("/logout", s.LogoutHandler)
				r.Get("/profile", s.GetProfileHandler)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/users/profile", s.GetProfileHandler)
			r.Put("/users/profile", s.UpdateProfileHandler)
			r.Get("/users/settings", s.GetSettingsHandler)
			r.Put("/users/settings", s.UpdateSettingsHandler)

			r.Post("/optimizations/suggest", s.SuggestHandler)
			r.Post("/optimizations/save", s.SaveOptimizationHandler)
			r.Get("/optimizations/history", s.HistoryHandler)
			r.Get("/optimizations/export", s.ExportHandler)

			r.Get("/dashboard/stats", s.StatsHandler)
			r.Get("/dashboard/quota", s.QuotaHandler)
			r.Get("/dashboard/recent", s.RecentHandler)
			r.Get("/dashboard/performance", s.PerformanceHandler)

			r.Post("/ai/title", s.AITitleHandler)

			r.Get("/events", s.GetEventsHandler)
		})
	})

	return r
}
