// Package sse writes Server-Sent Events. The admin live feed uses it as a
// websocket-free variant:
//
//	events, release := hub.Subscribe()
//	defer release()
//	sse.New(w, r).Pipe(events, 25*time.Second)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Stream is one open SSE response.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
	closed  bool
}

// New sets the event-stream headers. It returns nil, after writing a 500,
// when w cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, r: r, flusher: flusher}
}

// Send writes a named event with a JSON payload.
func (s *Stream) Send(event string, data any) error {
	if s.IsClosed() {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
	return nil
}

// SendRaw writes an unnamed data frame.
func (s *Stream) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// Comment writes a comment line, used as a keepalive.
func (s *Stream) Comment(msg string) {
	if s.IsClosed() {
		return
	}
	fmt.Fprintf(s.w, ": %s\n\n", msg)
	s.flusher.Flush()
}

// IsClosed reports whether the client went away.
func (s *Stream) IsClosed() bool {
	if s == nil {
		return true
	}
	if !s.closed {
		select {
		case <-s.r.Context().Done():
			s.closed = true
		default:
		}
	}
	return s.closed
}

// Pipe copies pre-encoded frames from events to the client, writing a
// keepalive comment every keepAlive, until the client disconnects or
// events is closed.
func (s *Stream) Pipe(events <-chan []byte, keepAlive time.Duration) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-s.r.Context().Done():
			s.closed = true
			return
		case frame, ok := <-events:
			if !ok {
				return
			}
			s.SendRaw(frame)
		case <-ticker.C:
			s.Comment("keepalive")
		}
	}
}
