package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/garderoba/internal/events"
	"github.com/erazemk/garderoba/internal/store"
)

// streamBuffer is how many changes a slow client may fall behind before
// changes are dropped for it.
const streamBuffer = 32

// keepAlive is the interval between comment lines on an idle stream.
const keepAlive = 30 * time.Second

// EventsHandler streams store changes as server-sent events.
type EventsHandler struct {
	Store *store.Store
}

// Stream handles GET /api/events. Each committed item change is sent as one
// event named after its kind; clients re-fetch the list when they get one.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	changes := make(chan events.Change, streamBuffer)
	unsubscribe := h.Store.Subscribe(func(c events.Change) {
		select {
		case changes <- c:
		default:
			slog.Warn("event stream behind, dropping change", "change", c.ID, "remote", r.RemoteAddr)
		}
	})
	defer unsubscribe()

	// The server write timeout does not apply to long-lived streams.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("failed to clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Error("event stream not supported", "error", err)
		return
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case c := <-changes:
			data, err := json.Marshal(c)
			if err != nil {
				slog.Error("failed to encode change", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", c.ID, c.Kind, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
