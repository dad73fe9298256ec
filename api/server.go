/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logging:    One structured line per request (logging.Middleware)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/budget/*      Settings, distribute, rollover
  /api/expenses      Expense entry
  /api/income        Income entry
  /api/transactions  Month history
  /api/summary       Month totals
  /api/categories/*  Balance and picker views
  /api/goals/*       Savings goals
  /api/health        Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/budget-engine/logging"
)

// RouterOptions configure NewRouter.
type RouterOptions struct {
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/budget", func(r chi.Router) {
			r.Get("/", h.GetOverview)
			r.Put("/income", h.SetIncome)
			r.Put("/base-expenses", h.SetBaseExpenses)
			r.Put("/categories", h.SetCategories)
			r.Post("/distribute", h.Distribute)
			r.Post("/rollover", h.Rollover)
		})

		r.Post("/expenses", h.RecordExpense)
		r.Post("/income", h.RecordIncome)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/summary", h.GetMonthSummary)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/expense-picker", h.ListExpenseCategories)
			r.Get("/{id}/balance", h.GetCategoryBalance)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Delete("/{id}", h.DeleteGoal)
			r.Get("/{id}/progress", h.GetGoalProgress)
		})
	})

	return r
}
