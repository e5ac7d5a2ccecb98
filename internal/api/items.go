package api

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/erazemk/garderoba/internal/imaging"
	"github.com/erazemk/garderoba/internal/laundry"
	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
	"github.com/erazemk/garderoba/internal/view"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Store   *store.Store
	Laundry *laundry.Service
	Metrics *metrics.Metrics
}

type createItemRequest struct {
	Label string `json:"label"`
}

type itemResponse struct {
	model.Item
	DisplayLabel string `json:"display_label"`
}

type finishResponse struct {
	Finished []string          `json:"finished"`
	Skipped  []string          `json:"skipped"`
	Failed   map[string]string `json:"failed,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func newItemResponse(item *model.Item) itemResponse {
	return itemResponse{Item: *item, DisplayLabel: item.DisplayLabel()}
}

// projection builds the visible list from ?in_laundry= and ?order= query parameters.
func (h *ItemsHandler) projection(r *http.Request) *view.Projection {
	p := &view.Projection{Source: h.Store}
	q := r.URL.Query()
	if only, err := strconv.ParseBool(q.Get("in_laundry")); err == nil {
		p.Filter.OnlyInLaundry = only
	}
	if q.Get("order") == "asc" {
		p.Order = store.OldestFirst
	}
	return p
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.projection(r).Items(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, newItemResponse(&items[i]))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Create handles POST /api/items. The body is either JSON with a label, or a
// multipart form with a label field and an optional image file.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var label string
	var img *imaging.Result

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxInputSize+1<<20)
		if err := r.ParseMultipartForm(imaging.MaxInputSize); err != nil {
			jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
			return
		}
		label = r.FormValue("label")

		var err error
		img, err = imaging.FormImage(r, "image")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req createItemRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		label = req.Label
	}

	item, err := h.Store.CreateItem(r.Context(), label, img)
	if err != nil {
		h.Metrics.Failure(err)
		itemError(w, err)
		return
	}

	slog.Info("item created", "item", item.ID, "label", item.DisplayLabel(), "image", item.HasImage)
	jsonResponse(w, http.StatusCreated, newItemResponse(item))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteItem(r.Context(), id); err != nil {
		h.Metrics.Failure(err)
		itemError(w, err)
		return
	}

	slog.Info("item deleted", "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// ToggleLaundry handles POST /api/items/{id}/laundry.
func (h *ItemsHandler) ToggleLaundry(w http.ResponseWriter, r *http.Request) {
	item, err := h.Laundry.ToggleItem(r.Context(), r.PathValue("id"))
	if err != nil {
		itemError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Finish handles POST /api/items/finish. It takes every item visible under
// the same filter as GET /api/items out of the laundry.
func (h *ItemsHandler) Finish(w http.ResponseWriter, r *http.Request) {
	items, err := h.projection(r).Items(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	result, err := h.Laundry.MarkAllFinished(r.Context(), items)
	resp := finishResponse{
		Finished: nonNil(result.Finished),
		Skipped:  nonNil(result.Skipped),
	}
	if err != nil {
		slog.Error("mark finished partially failed", "failed", len(result.Failed), "error", err)
		resp.Failed = make(map[string]string, len(result.Failed))
		for id, ferr := range result.Failed {
			resp.Failed[id] = view.ErrorMessage(ferr)
		}
		resp.Error = view.ErrorMessage(err)
		jsonResponse(w, http.StatusInternalServerError, resp)
		return
	}

	jsonResponse(w, http.StatusOK, resp)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := h.Store.GetItemImage(r.Context(), r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
