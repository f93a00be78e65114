package api

import (
	"bytes"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
)

// replayCache remembers the response to each Idempotency-Key so the CLI can
// resend queued writes without applying them twice.
type replayCache struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]*replayEntry
}

type replayEntry struct {
	done   chan struct{}
	status int
	body   []byte
}

func newReplayCache(max int) *replayCache {
	return &replayCache{max: max, entries: make(map[string]*replayEntry)}
}

// begin returns the entry for key and whether the caller owns it and must
// call finish.
func (c *replayCache) begin(key string) (*replayEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e, false
	}
	e := &replayEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.order = append(c.order, key)
	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	return e, true
}

func (c *replayCache) finish(key string, e *replayEntry, status int, body []byte) {
	c.mu.Lock()
	e.status = status
	e.body = body
	if status >= http.StatusInternalServerError {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	close(e.done)
}

func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if r.Method != http.MethodPost || key == "" {
			next.ServeHTTP(w, r)
			return
		}
		scoped := r.Method + " " + r.URL.Path + " " + key
		entry, owner := s.replays.begin(scoped)
		if !owner {
			select {
			case <-entry.done:
			case <-r.Context().Done():
				writeError(w, http.StatusServiceUnavailable, "request cancelled")
				return
			}
			if entry.status >= http.StatusInternalServerError {
				writeError(w, http.StatusServiceUnavailable, "original request failed, retry")
				return
			}
			s.metrics.replayed.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(entry.status)
			_, _ = w.Write(entry.body)
			return
		}

		var buf bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&buf)
		defer func() {
			if rec := recover(); rec != nil {
				// Forget the key so a retry runs again; Recoverer answers this one.
				s.replays.finish(scoped, entry, http.StatusInternalServerError, nil)
				panic(rec)
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			s.replays.finish(scoped, entry, status, buf.Bytes())
		}()
		next.ServeHTTP(ww, r)
	})
}
