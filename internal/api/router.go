package api

import (
	"net/http"

	"github.com/erazemk/garderoba/internal/laundry"
	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s *store.Store, m *metrics.Metrics, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: s.DB(), JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{
		Store:   s,
		Laundry: &laundry.Service{Store: s, Metrics: m},
		Metrics: m,
	}
	eventsHandler := &EventsHandler{Store: s}

	authMW := AuthMiddleware(jwtSecret, s.DB())

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("POST /api/items/finish", authMW(http.HandlerFunc(itemsHandler.Finish)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/laundry", authMW(http.HandlerFunc(itemsHandler.ToggleLaundry)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	mux.Handle("GET /api/events", authMW(http.HandlerFunc(eventsHandler.Stream)))

	return mux
}
