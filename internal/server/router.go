package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/auth"
)

// NewRouter wires the full API surface. rdb may be nil, which disables rate
// limiting.
func NewRouter(h *Handlers, authSvc *auth.Service, rdb *redis.Client, rateLimit int, log *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if rdb != nil {
		r.Use(RateLimiter(rdb, rateLimit, time.Minute))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", h.Register)
		api.Post("/auth/login", h.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(Authenticator(authSvc, log))

			pr.Route("/users", func(u chi.Router) {
				u.Get("/me", h.GetProfile)
				u.Put("/username", h.UpdateUsername)
				u.Put("/password", h.ChangePassword)
				u.Delete("/", h.DeleteProfile)
			})

			pr.Route("/accounts", func(a chi.Router) {
				a.Post("/", h.CreateAccount)
				a.Get("/", h.ListAccounts)
				a.Get("/{id}", h.GetAccount)
				a.Put("/{id}", h.UpdateAccount)
				a.Delete("/{id}", h.DeleteAccount)
			})

			pr.Route("/transactions", func(t chi.Router) {
				t.Post("/", h.CreateTransaction)
				t.Get("/account/{accountID}", h.ListTransactionsByAccount)
				t.Get("/{id}", h.GetTransaction)
				t.Put("/{id}", h.UpdateTransaction)
				t.Delete("/{id}", h.DeleteTransaction)
			})

			pr.Route("/analysis", func(an chi.Router) {
				an.Get("/dashboard", h.Dashboard)
				an.Get("/stats", h.Statistics)
				an.Get("/forecast", h.Forecast)
			})
		})
	})

	return r
}
