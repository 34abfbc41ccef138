package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safespace-dev/safespace/internal/handler"
	mw "github.com/safespace-dev/safespace/internal/middleware"
	"github.com/safespace-dev/safespace/internal/middleware/metrics"
	rl "github.com/safespace-dev/safespace/internal/middleware/ratelimiter"
	"github.com/safespace-dev/safespace/internal/setup"
	"github.com/safespace-dev/safespace/web"
)

const (
	feedRate  = 5.0 // per second per IP
	feedBurst = 20
)

// New wires every route. Anonymous pages never see the session cookie
// beyond OptionalAuth, which only affects navigation links.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()
	h := deps.Handler
	auth := mw.NewAuth(deps.Jwt, mw.AuthConfig{
		CookieName:    deps.Public.SessionCookieName,
		LoginURL:      deps.Public.LoginURL,
		SecureCookies: deps.Public.SecureCookies,
	})

	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Compress(5))
	r.Use(mw.SecurityHeaders(deps.Public.SecureCookies, mw.DefaultCSP))

	r.Get("/health", handler.HealthHandler)
	r.Get("/ready", h.ReadyHandler)
	r.Handle("/metrics", promhttp.Handler())

	static, _ := fs.Sub(web.Static, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// public JSON feed for partner sites
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.Public.CorsAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
		r.Use(mw.RateLimit(rl.New(feedRate, feedBurst, time.Hour), mw.GetIP))
		r.Get("/api/v1/answered", h.AnsweredFeedHandler)
	})

	// HTML pages
	r.Group(func(r chi.Router) {
		r.Use(mw.NewCSRF(deps.Public.SecureCookies).Protect)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth())
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/ask", http.StatusFound)
			})
			r.Get("/ask", h.AskGetHandler)
			r.Post("/ask", h.AskPostHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.NeedModerator())
			r.Use(mw.NoStore)
			r.Get("/", h.DashboardHandler)
			r.Get("/questions", h.ModerationGetHandler)
			r.Post("/questions/{id}/answer", h.AnswerPostHandler)
			r.Get("/questions/{id}/delete", h.ConfirmDeleteHandler)
			r.Post("/questions/{id}/delete", h.DeletePostHandler)
		})
	})

	return r
}
