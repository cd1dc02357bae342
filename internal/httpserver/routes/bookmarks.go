package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/handlers"
	"github.com/marque-app/marque/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	guards := []func(http.Handler) http.Handler{
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitPerMin,
			MaxEntries:        10000,
			SweepInterval:     time.Minute,
			IdleTTL:           15 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
		mw.Auth(d.JWTSecret, d.Logger),
	}

	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(guards...)
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.CreateBookmark(d))
		r.Patch("/", handlers.UpdateBookmark(d))
		r.Delete("/", handlers.DeleteBookmark(d))
	})
}
