package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/mcp"
	"github.com/go-chi/chi/v5"
)

// handleEvents streams store snapshots of one session as server-sent
// events. The first event carries the current state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	if s.sessions == nil {
		writeBody(w, http.StatusServiceUnavailable, map[string]any{"error": &mcp.APIError{Code: "INTERNAL", Message: "event streaming not available"}})
		return
	}
	sess, err := s.sessions.Get(tenantID, sessionID)
	if err != nil {
		apiErr := mcp.MapError(err)
		if apiErr == nil {
			apiErr = &mcp.APIError{Code: "INTERNAL", Message: err.Error()}
		}
		writeBody(w, httpStatus(apiErr.Code), map[string]any{"error": apiErr})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Long-lived stream: lift the server write deadline.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	store := sess.Store()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	keepalive := time.NewTicker(s.keepAlive)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			if _, err := w.Write([]byte(":keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case snap, ok := <-ch:
			if !ok {
				// Session closed or swept.
				_, _ = w.Write([]byte("event: closed\ndata: {}\n\n"))
				flusher.Flush()
				return
			}
			frame, err := encodeSnapshot(snap)
			if err != nil {
				s.logger.Error("encode snapshot", "session_id", sessionID, "error", err)
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func encodeSnapshot(snap activity.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data)), nil
}
