package handlers

import (
	"net/http"

	"timebank/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/gigs", h.ListGigs)
		r.Post("/gigs", h.CreateGig)
		r.Post("/gigs/{id}/accept", h.AcceptGig)
		r.Post("/gigs/{id}/start", h.StartGig)
		r.Post("/gigs/{id}/confirm", h.ConfirmCompletion)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/users/{id}/balance", h.GetBalance)
		r.Post("/disputes", h.OpenDispute)
		r.Get("/disputes", h.ListDisputes)
		r.Get("/leaderboard/{category}", h.Leaderboard)
		r.Get("/stats/me", h.MyStats)
		r.Get("/events/current", h.CurrentEvent)
	})

	router.Route("/moderation", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireModerator(h.service))
		r.Post("/freeze", h.FreezeUser)
		r.Post("/unfreeze", h.UnfreezeUser)
		r.Post("/award", h.AwardCredits)
		r.Post("/gigs/{id}/cancel", h.CancelGig)
		r.Post("/disputes/{id}/resolve", h.ResolveDispute)
		r.Get("/actions", h.ListModerationActions)
	})

	router.Get("/ws/balances", h.WSBalances)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
