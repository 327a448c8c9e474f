package websocket

import (
	"fmt"
	"net/http"
)

// Serve upgrades the request and attaches the connection to recipient. The
// caller is responsible for authenticating the request first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, recipient Recipient) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 32),
		recipient: recipient,
		logger:    h.logger,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return fmt.Errorf("websocket hub is stopped")
	}

	go client.writePump()
	go client.readPump()
	return nil
}
