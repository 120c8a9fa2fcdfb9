package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/server/gate"
)

// handleSessionEvents streams the gate decision for the caller's session as
// server-sent events. Admin pages listen and leave for the login page once
// the stream reports "unauthorized", for instance after a sign-out in
// another tab. The stream ends after that event.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	g := gate.Open(r.Context(), s.auth, sessionToken(r))
	defer g.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.gateWait)
	decision, _ := g.Wait(ctx)
	cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(a gate.Authorization) bool {
		if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", a); err != nil {
			return false
		}
		flusher.Flush()
		return a != gate.Unauthorized
	}

	if !send(decision) {
		return
	}

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.stopping:
			return
		case a := <-g.Updates():
			if !send(a) {
				return
			}
		case <-ticker.C:
			// Expiry is only announced by the sweep; the gate itself notices
			// it on read.
			if g.Authorization() == gate.Unauthorized {
				send(gate.Unauthorized)
				return
			}
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
