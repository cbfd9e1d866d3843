package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/kinectkeys/internal/capture"
)

// frameInterval paces the MJPEG stream at about 15 FPS.
const frameInterval = 66 * time.Millisecond

// StreamHandler serves the latest sensor color frame as MJPEG.
type StreamHandler struct {
	buffer *capture.ColorBuffer
}

// NewStreamHandler creates a new StreamHandler reading from buffer.
func NewStreamHandler(buffer *capture.ColorBuffer) *StreamHandler {
	return &StreamHandler{buffer: buffer}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is only sent
// when the buffer has received a new one since the last write.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		n := h.buffer.Frames()
		if n == 0 || n == sent {
			continue
		}

		jpg, err := h.buffer.JPEG()
		if err != nil {
			log.Printf("stream encode error: %v", err)
			continue
		}
		sent = n

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpg))
		if _, err := w.Write(jpg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
