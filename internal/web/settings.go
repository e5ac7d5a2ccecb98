package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/garderoba/internal/auth"
	"github.com/erazemk/garderoba/internal/store"
)

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, http.StatusOK, "", "")
}

// SettingsSubmit handles POST /settings (password change).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if next != confirm {
		s.renderSettings(w, http.StatusBadRequest, "The new passwords do not match.", "")
		return
	}

	hash, err := store.GetPasswordHash(r.Context(), s.Store.DB())
	if err != nil {
		slog.Error("failed to load password hash", "error", err)
		s.renderSettings(w, http.StatusInternalServerError, "Could not change the password.", "")
		return
	}
	if auth.CheckPassword(hash, current) != nil {
		s.renderSettings(w, http.StatusUnauthorized, "The current password is wrong.", "")
		return
	}

	newHash, err := auth.HashPassword(next)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		s.renderSettings(w, http.StatusBadRequest, "The new password is too short.", "")
		return
	}
	if err == nil {
		err = store.SetPasswordHash(r.Context(), s.Store.DB(), newHash)
	}
	if err != nil {
		slog.Error("failed to change password", "error", err)
		s.renderSettings(w, http.StatusInternalServerError, "Could not change the password.", "")
		return
	}

	slog.Info("password changed")
	s.renderSettings(w, http.StatusOK, "", "Password changed.")
}

func (s *Server) renderSettings(w http.ResponseWriter, status int, errMsg, success string) {
	s.Templates.Render(w, status, "settings.html", &PageData{
		Title:   "Settings",
		Error:   errMsg,
		Success: success,
	})
}
