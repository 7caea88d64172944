package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	ws "github.com/resqhub/quakewatch-be/internal/websocket"
)

// WebSocketHandler handles upgrading HTTP connections to WebSocket
// connections for the realtime alert stream.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The upstream contract allows all origins.
		return true
	},
}

// Serve handles the WebSocket connection request. Clients choose their
// channels at connect time via ?channels=alerts,user:<id>; the default is
// the public alert feed.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	channels := parseChannels(r.URL.Query().Get("channels"))
	client := ws.NewClient(h.hub, conn, channels)
	h.hub.Register <- client

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingWSMessage)
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		h.hub.Unregister <- client
	}()
}

// handleIncomingWSMessage processes messages received from a websocket
// client. The stream is one-way; anything the client sends besides a ping
// is unexpected.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	if strings.TrimSpace(string(message)) == `{"type":"ping"}` {
		return
	}
	log.Warn().Bytes("message", message).Msg("Unexpected websocket message received")
	// Send is only written under the hub's lock; the hub may already have
	// evicted this client and closed the channel.
	h.hub.SendToClient(client, ws.NewErrorMessage("this stream does not accept messages"))
}

func parseChannels(raw string) []string {
	if raw == "" {
		return []string{ws.ChannelAlerts}
	}
	var channels []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			channels = append(channels, c)
		}
	}
	if len(channels) == 0 {
		return []string{ws.ChannelAlerts}
	}
	return channels
}
