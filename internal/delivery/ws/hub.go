package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/gorilla/websocket"
)

// Hub fans transcode events out to the sockets watching each upload.
type Hub struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	watchers map[string]map[*websocket.Conn]bool
}

// WriteWait bounds a single event write; a socket that stalls past it is
// dropped.
var WriteWait = 10 * time.Second

func NewHub() *Hub {
	log.Printf("[hub] init")
	return &Hub{
		watchers: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Register(uploadID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.watchers[uploadID]; !ok {
		h.watchers[uploadID] = make(map[*websocket.Conn]bool)
	}

	h.watchers[uploadID][conn] = true
	log.Printf("[hub] watch upload=%s conns=%d", uploadID, len(h.watchers[uploadID]))
}

func (h *Hub) Unregister(uploadID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.watchers[uploadID]
	if !ok {
		return
	}

	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}

	if len(conns) == 0 {
		delete(h.watchers, uploadID)
	}
	log.Printf("[hub] unwatch upload=%s conns=%d", uploadID, len(conns))
}

// Watchers reports how many sockets watch uploadID.
func (h *Hub) Watchers(uploadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[uploadID])
}

func (h *Hub) Broadcast(ev models.TranscodeEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[hub][SEND-ERR] marshal: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.watchers[ev.UploadID]))
	for conn := range h.watchers[ev.UploadID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	// gorilla conns allow one writer at a time
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[hub][SEND-ERR] upload=%s err=%v", ev.UploadID, err)
			h.Unregister(ev.UploadID, conn)
		}
	}
}

// Run broadcasts events until the channel closes.
func (h *Hub) Run(events <-chan models.TranscodeEvent) {
	for ev := range events {
		h.Broadcast(ev)
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
