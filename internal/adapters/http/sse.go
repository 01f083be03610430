package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/questera/webintel/internal/core/domain"
)

// streamSearch serves POST /v1/search/stream as server-sent events.
// The client disconnecting cancels the request context, which stops
// fragment production upstream.
func (rt *Router) streamSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query, err := decodeSearchQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	fragments, err := rt.dispatcher.StreamSearch(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	handle := rt.streams.Register(requestIDFromContext(r.Context()))
	defer rt.streams.Unregister(handle)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for fragment := range fragments {
		if err := writeFragmentEvent(w, fragment); err != nil {
			return
		}
		flusher.Flush()
	}

	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return
	}
	flusher.Flush()
}

func writeFragmentEvent(w http.ResponseWriter, fragment domain.StreamFragment) error {
	payload, err := json.Marshal(fragment)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
