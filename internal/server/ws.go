package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/kinectkeys/internal/skeleton"
)

// writeTimeout bounds a single websocket write to a slow client.
const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SkeletonSource delivers every processed skeleton frame to subscribers.
type SkeletonSource interface {
	SubscribeSkeleton() (<-chan skeleton.Frame, func())
}

// SkeletonHandler streams tracked bodies to WebSocket clients as JSON frames.
type SkeletonHandler struct {
	source SkeletonSource
}

// NewSkeletonHandler creates a new SkeletonHandler.
func NewSkeletonHandler(source SkeletonSource) *SkeletonHandler {
	return &SkeletonHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests. Each connection gets its own
// subscription, which ends when the client goes away.
func (h *SkeletonHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	frames, unsubscribe := h.source.SubscribeSkeleton()
	defer unsubscribe()

	// The read side only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}
