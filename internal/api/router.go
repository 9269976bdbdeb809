package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter wires the HTTP surface. CORS is deliberately permissive with a
// fixed method and header allow-list; the API is meant to be called from
// any origin.
func NewRouter(app *App, rateLimit int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
			AllowedHeaders: []string{
				"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version",
				"Content-Length", "Content-MD5", "Content-Type", "Date", "X-Api-Version",
			},
			AllowCredentials: true,
		}))
		r.Use(httprate.LimitByIP(rateLimit, time.Minute))

		r.Post("/recommend", app.RecommendHandler)

		r.Post("/sessions", app.CreateSessionHandler)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", app.SessionSnapshotHandler)
			r.Post("/query", app.QueryHandler)
			r.Put("/roulette/{catalogID}", app.ToggleHandler)
			r.Post("/roulette/spin", app.SpinHandler)
			r.Post("/roulette/reset", app.ResetHandler)
			r.Get("/roulette/events", app.RouletteEventsHandler)
		})
	})

	return r
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
