package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamKeepAlive is how often an idle stream sends a comment line.
const streamKeepAlive = 15 * time.Second

// handleStream handles GET /entries/stream as Server-Sent Events. Every
// snapshot is sent as a "snapshot" event carrying the entries visible to
// the caller. Slow clients skip intermediate snapshots.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	ctx := r.Context()
	sess := sessionFrom(ctx)
	anonymize := queryBool(r, "anonymize")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: streaming unsupported", op))
		return
	}

	sub, err := s.deps.Watch(ctx)
	if err != nil {
		s.writeServiceError(w, r, Wrap(op, err))
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case v, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(toEntriesResponse(v.For(sess, anonymize)))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
