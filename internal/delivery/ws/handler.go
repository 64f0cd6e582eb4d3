package ws

import (
	"net/http"

	"github.com/google/uuid"
)

// WSHandler subscribes the socket to ?upload=<id> until the client leaves.
func WSHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.URL.Query().Get("upload"))
		if err != nil {
			http.Error(w, "upload must be a uuid", http.StatusBadRequest)
			return
		}
		uploadID := id.String()

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		hub.Register(uploadID, conn)
		defer hub.Unregister(uploadID, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
