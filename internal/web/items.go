package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/garderoba/internal/imaging"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
	"github.com/erazemk/garderoba/internal/view"
)

type itemsPageData struct {
	PageData
	Items       []model.Item
	LaundryOnly bool
	InLaundry   int
}

type itemDetailData struct {
	PageData
	Item *model.Item
}

// laundryOnly reports whether the list filter flag is set, either in the
// query string or in a submitted form.
func laundryOnly(r *http.Request) bool {
	return r.FormValue("laundry") == "1"
}

// listURL returns the item list URL with the filter flag preserved.
func listURL(only bool) string {
	if !only {
		return "/"
	}
	return "/?" + url.Values{"laundry": {"1"}}.Encode()
}

// renderItems renders the item list. A non-empty errMsg is shown as an alert
// above the list.
func (s *Server) renderItems(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	only := laundryOnly(r)
	p := &view.Projection{Source: s.Store, Filter: view.Filter{OnlyInLaundry: only}}

	items, err := p.Items(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		if errMsg == "" {
			errMsg = "Could not load your items."
		}
		status = http.StatusInternalServerError
	}

	inLaundry := 0
	for _, item := range items {
		if item.IsInLaundry {
			inLaundry++
		}
	}

	s.Templates.Render(w, status, "items.html", &itemsPageData{
		PageData:    PageData{Title: "Items", User: GetWebClaims(r.Context()), Error: errMsg},
		Items:       items,
		LaundryOnly: only,
		InLaundry:   inLaundry,
	})
}

// failed logs err and re-renders the list with a user-facing message.
func (s *Server) failed(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err)

	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrItemNotFound) {
		status = http.StatusNotFound
	}
	s.renderItems(w, r, status, view.ErrorMessage(err))
}

// ItemsPage handles GET /.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	s.renderItems(w, r, http.StatusOK, "")
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	item, err := s.Store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	s.Templates.Render(w, http.StatusOK, "item_detail.html", &itemDetailData{
		PageData: PageData{Title: item.DisplayLabel(), User: GetWebClaims(r.Context())},
		Item:     item,
	})
}

// ItemCreateSubmit handles POST /items. The form carries a label and an
// optional photo; leaving both empty still creates an item.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxInputSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxInputSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderItems(w, r, http.StatusBadRequest, "The photo is too large.")
		return
	}

	img, err := imaging.FormImage(r, "image")
	if err != nil {
		slog.Warn("rejected uploaded photo", "error", err)
		s.renderItems(w, r, http.StatusBadRequest, "The photo could not be read. Use a JPEG, PNG, GIF, WebP, BMP or TIFF image.")
		return
	}

	item, err := s.Store.CreateItem(r.Context(), r.FormValue("label"), img)
	if err != nil {
		s.Metrics.Failure(err)
		s.failed(w, r, "failed to create item", err)
		return
	}

	slog.Info("item created", "item", item.ID, "label", item.DisplayLabel(), "image", item.HasImage)
	http.Redirect(w, r, listURL(laundryOnly(r)), http.StatusSeeOther)
}

// ItemToggleSubmit handles POST /items/{id}/laundry.
func (s *Server) ItemToggleSubmit(w http.ResponseWriter, r *http.Request) {
	item, err := s.Laundry.ToggleItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failed(w, r, "failed to toggle laundry", err)
		return
	}

	slog.Info("laundry toggled", "item", item.ID, "in_laundry", item.IsInLaundry, "times", item.TimesInLaundry)
	http.Redirect(w, r, listURL(laundryOnly(r)), http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Store.DeleteItem(r.Context(), id); err != nil {
		s.Metrics.Failure(err)
		s.failed(w, r, "failed to delete item", err)
		return
	}

	slog.Info("item deleted", "item", id)
	http.Redirect(w, r, listURL(laundryOnly(r)), http.StatusSeeOther)
}

// ItemsFinishSubmit handles POST /items/finish. It acts on the items visible
// under the submitted filter flag.
func (s *Server) ItemsFinishSubmit(w http.ResponseWriter, r *http.Request) {
	only := laundryOnly(r)
	p := &view.Projection{Source: s.Store, Filter: view.Filter{OnlyInLaundry: only}}

	items, err := p.Items(r.Context())
	if err != nil {
		s.failed(w, r, "failed to list items", err)
		return
	}

	result, err := s.Laundry.MarkAllFinished(r.Context(), items)
	if err != nil {
		slog.Error("mark finished partially failed",
			"finished", len(result.Finished), "failed", len(result.Failed), "error", err)
		s.renderItems(w, r, http.StatusInternalServerError, view.ErrorMessage(err))
		return
	}

	slog.Info("laundry finished", "finished", len(result.Finished), "skipped", len(result.Skipped))
	http.Redirect(w, r, listURL(only), http.StatusSeeOther)
}

// ItemImageGet handles GET /items/{id}/image.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := s.Store.GetItemImage(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
