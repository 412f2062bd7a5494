package api

import (
	"net/http"

	"courier-backoffice-service/internal/api/handlers"
	"courier-backoffice-service/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the HTTP layer depends on.
type Services struct {
	Clients *services.ClientRegistry
	Orders  *services.OrderLedger
	Auth    *services.Authenticator
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	authHandler := &handlers.AuthHandler{Auth: svc.Auth}
	clientHandler := &handlers.ClientHandler{Clients: svc.Clients}
	orderHandler := &handlers.OrderHandler{Orders: svc.Orders}
	adminHandler := &handlers.AdminHandler{Auth: svc.Auth, Clients: svc.Clients, Orders: svc.Orders}

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.LoadSession)

			r.Post("/logout", authHandler.Logout)

			r.Get("/clients", clientHandler.List)
			r.Post("/clients", clientHandler.Create)
			r.Get("/clients/{id}", clientHandler.Get)
			r.Delete("/clients/{id}", clientHandler.Delete)

			r.Get("/orders", orderHandler.List)
			r.Post("/orders", orderHandler.Create)
			r.Get("/orders/summary", orderHandler.Summary)
			r.Get("/orders/{id}", orderHandler.Get)
			r.Patch("/orders/{id}", orderHandler.Update)
			r.Delete("/orders/{id}", orderHandler.Delete)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/orders", http.StatusSeeOther)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", adminHandler.LoginForm)
		r.Post("/login", adminHandler.Login)
		r.Post("/logout", adminHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(adminHandler.RequireSession)
			r.Get("/clients", adminHandler.ClientsPage)
			r.Get("/orders", adminHandler.OrdersPage)
		})
	})

	return r
}
