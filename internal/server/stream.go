package server

import (
	"fmt"
	"net/http"
	"time"
)

// PreviewSource provides the latest analyzed frame as JPEG.
type PreviewSource interface {
	Preview() ([]byte, bool)
}

// StreamHandler serves the session preview as MJPEG.
type StreamHandler struct {
	source   PreviewSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler with the given preview source.
func NewStreamHandler(source PreviewSource) *StreamHandler {
	return &StreamHandler{
		source:   source,
		interval: 66 * time.Millisecond, // ~15 FPS
	}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is only
// written when the preview changed since the last one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, ok := h.source.Preview()
		if !ok || sameFrame(frame, last) {
			continue
		}
		last = frame

		if err := writePart(w, frame); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}

// sameFrame compares by backing array; the session stores a new slice for
// every frame.
func sameFrame(a, b []byte) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
