package web

import (
	"net/http"

	"github.com/erazemk/garderoba/internal/laundry"
	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/store"
	webembed "github.com/erazemk/garderoba/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(s *store.Store, m *metrics.Metrics, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Store:     s,
		Laundry:   &laundry.Service{Store: s, Metrics: m},
		Metrics:   m,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, s.DB())

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", srv.LoginPage)
	mux.HandleFunc("POST /login", srv.LoginSubmit)
	mux.HandleFunc("POST /logout", srv.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(srv.ItemsPage)))

	mux.Handle("POST /items", cookieAuth(http.HandlerFunc(srv.ItemCreateSubmit)))
	mux.Handle("POST /items/finish", cookieAuth(http.HandlerFunc(srv.ItemsFinishSubmit)))
	mux.Handle("GET /items/{id}", cookieAuth(http.HandlerFunc(srv.ItemDetailPage)))
	mux.Handle("GET /items/{id}/image", cookieAuth(http.HandlerFunc(srv.ItemImageGet)))
	mux.Handle("POST /items/{id}/laundry", cookieAuth(http.HandlerFunc(srv.ItemToggleSubmit)))
	mux.Handle("POST /items/{id}/delete", cookieAuth(http.HandlerFunc(srv.ItemDeleteSubmit)))

	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(srv.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(srv.SettingsSubmit)))

	return mux, nil
}
