package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"littlesteps/internal/catalog"
	"littlesteps/internal/logger"
	"littlesteps/internal/security"
	"littlesteps/internal/service"
)

// RouterDeps is everything the HTTP surface calls into
type RouterDeps struct {
	Auth        *service.AuthService
	Children    *service.ChildService
	Planning    *service.PlanningService
	Feed        *service.FeedService
	Preferences *service.PreferencesService
	Digest      *service.DigestService
	Welcome     WelcomeSender
	Catalog     *catalog.Catalog
	CSRF        *security.CSRFGenerator
	AuthLimiter *security.RateLimiter
	Startup     *StartupStatus
	Log         *logger.Logger
}

// NewRouter mounts the JSON API under /api plus the health check and
// the digest unsubscribe link
func NewRouter(d RouterDeps) chi.Router {
	log := d.Log.With("component", "http")
	mw := NewMiddleware(d.Auth, d.CSRF, log)
	authHandler := NewAuthHandler(d.Auth, d.CSRF, d.Welcome, log)
	childHandler := NewChildHandler(d.Children, log)
	planningHandler := NewPlanningHandler(d.Planning, log)
	feedHandler := NewFeedHandler(d.Feed, log)
	prefsHandler := NewPreferencesHandler(d.Preferences, d.Catalog, log)
	digestHandler := NewDigestHandler(d.Digest, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", d.Startup.Health)
	r.Get("/digest/unsubscribe", digestHandler.Unsubscribe)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(d.AuthLimiter.Middleware)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Get("/preferences/options", prefsHandler.Options)
		r.Get("/resources/search", feedHandler.Search)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Use(mw.CSRFProtect)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)
			r.Put("/auth/digest", authHandler.SetDigest)

			r.Get("/preferences", prefsHandler.GetPreferences)
			r.Put("/preferences", prefsHandler.UpdatePreferences)

			r.Route("/children", func(r chi.Router) {
				r.Get("/", childHandler.ListChildren)
				r.Post("/", childHandler.CreateChild)
				r.Route("/{childID}", func(r chi.Router) {
					r.Get("/", childHandler.GetChild)
					r.Put("/", childHandler.UpdateChild)
					r.Delete("/", childHandler.DeleteChild)
					r.Get("/dashboard", childHandler.Dashboard)
					r.Get("/checklist", planningHandler.Checklist)
					r.Post("/checklist", planningHandler.AddCustomItem)
					r.Get("/suggestions", planningHandler.Suggestions)
					r.Post("/suggestions", planningHandler.AddSuggestions)
					r.Get("/feed", feedHandler.Feed)
				})
			})

			r.Route("/checklist/{itemID}", func(r chi.Router) {
				r.Post("/toggle", planningHandler.ToggleItem)
				r.Put("/due-date", planningHandler.UpdateDueDate)
				r.Delete("/", planningHandler.DeleteItem)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, log, http.StatusNotFound, "Not found", "", nil)
	})
	return r
}
