package websocket

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/models"
	"github.com/resqhub/quakewatch-be/internal/observability"
)

// Channel names. Every dashboard session subscribes to ChannelAlerts for the
// live feed; personal notification decisions go to "user:<id>".
const ChannelAlerts = "alerts"

// UserChannel returns the per-user channel name for dispatch decisions.
func UserChannel(userID string) string {
	return "user:" + userID
}

// Hub maintains the set of active clients and broadcasts messages to them.
//
// Delivery is realtime-only: nothing is buffered for offline clients, and a
// session that subscribes after an alert was published only sees it through
// the REST range query. A subscriber whose send buffer is full is dropped
// rather than allowed to stall the fan-out.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Inbound messages for global broadcast (system stats and the like).
	Broadcast chan []byte

	// mu guards clients and subscriptions: the ingestion pipeline and the
	// dispatcher publish from their own goroutines, concurrently with Run.
	mu sync.Mutex

	// Registered clients.
	clients map[*Client]bool

	// A map of channel names to the set of clients subscribed to each.
	subscriptions map[string]map[*Client]bool

	metrics *observability.Metrics
}

// NewHub creates a new Hub. metrics may be nil in tests.
func NewHub(metrics *observability.Metrics) *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Broadcast:     make(chan []byte),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		metrics:       metrics,
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			for _, channel := range client.Channels {
				h.addSubscription(client, channel)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.setClientGauge(total)
			log.Info().Int("total_clients", total).Strs("channels", client.Channels).Msg("Client connected")

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.setClientGauge(total)
			log.Info().Int("total_clients", total).Msg("Client disconnected")

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.sendOrDrop(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastTo sends a message to all clients subscribed to a channel.
// Safe to call from any goroutine.
func (h *Hub) BroadcastTo(channel string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.subscriptions[channel] {
		h.sendOrDrop(client, message)
	}
}

// SendToClient delivers a message to a single client. Safe to call from any
// goroutine: only the hub closes Send (on unregister or slow-consumer
// eviction), and it does so under mu, so the membership check here is the
// only way to write to Send from outside the Run loop without racing that
// close.
func (h *Hub) SendToClient(client *Client, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	h.sendOrDrop(client, message)
}

// NotifyUser delivers a message to all of one user's subscribed sessions.
// Satisfies the dispatcher's notifier dependency.
func (h *Hub) NotifyUser(userID string, message []byte) {
	h.BroadcastTo(UserChannel(userID), message)
}

// PublishAlert pushes a newly inserted alert to the live feed channel.
func (h *Hub) PublishAlert(alert models.Alert) {
	msg, err := NewAlertMessage(alert)
	if err != nil {
		log.Error().Err(err).Str("external_id", alert.ExternalID).Msg("Failed to encode alert message")
		return
	}
	h.BroadcastTo(ChannelAlerts, msg)
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// sendOrDrop attempts a non-blocking send; a client with a full buffer is
// evicted so one slow consumer cannot stall delivery to the rest.
// Caller must hold h.mu.
func (h *Hub) sendOrDrop(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
		h.removeSubscription(client)
	}
}

func (h *Hub) addSubscription(client *Client, channel string) {
	if h.subscriptions[channel] == nil {
		h.subscriptions[channel] = make(map[*Client]bool)
	}
	h.subscriptions[channel][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for channel, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, channel)
			}
		}
	}
}

func (h *Hub) setClientGauge(n int) {
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(float64(n))
	}
}
