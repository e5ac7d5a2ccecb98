package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/garderoba/internal/auth"
	"github.com/erazemk/garderoba/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "login.html", &PageData{Title: "Log in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	if password == "" {
		s.Templates.Render(w, http.StatusBadRequest, "login.html", &PageData{
			Title: "Log in",
			Error: "Enter your password.",
		})
		return
	}

	hash, err := store.GetPasswordHash(r.Context(), s.Store.DB())
	if err != nil {
		slog.Error("failed to load password hash", "error", err)
	}
	if err != nil || auth.CheckPassword(hash, password) != nil {
		slog.Warn("login failed", "remote", r.RemoteAddr)
		s.Templates.Render(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Log in",
			Error: "Wrong password.",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		s.Templates.Render(w, http.StatusInternalServerError, "login.html", &PageData{
			Title: "Log in",
			Error: "Could not log you in.",
		})
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked server-side so a
// copied cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := store.RevokeSession(r.Context(), s.Store.DB(), claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.Error("failed to revoke session", "error", err)
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
