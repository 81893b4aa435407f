package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fintrack/internal/log"
)

// handleTransactionStream serves the live transaction feed over
// Server-Sent Events. Each event carries the owner's full current
// snapshot, newest date first; one is sent immediately on connect and
// another after every write.
func (s *Server) handleTransactionStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{Error: "streaming not supported"})
		return
	}

	ch, cancel, err := s.transactions.Subscribe(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(toTransactionDTOs(snapshot))
			if err != nil {
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode snapshot",
					log.FieldComponent, log.ComponentStream, log.FieldError, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
