package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/muness/unified-hifi-control/internal/events"
)

// sseEvents implements subscribe_events(): an async stream of events
// terminated on ShuttingDown, one `{"type": "<EventName>", "payload":
// {...}}` JSON frame per SSE data line (spec.md §6). Event already
// carries the matching json tags, so it is sent as-is rather than
// translated into an intermediate wire type.
func (h *handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id, ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(id)

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			sendSSE(w, flusher, e)
			if e.Kind == events.KindShuttingDown {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
