package websocket

import (
	"encoding/json"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewAlertMessage encodes a freshly inserted alert for the live feed.
func NewAlertMessage(alert models.Alert) ([]byte, error) {
	return json.Marshal(Message{Type: "new_alert", Payload: alert})
}

// NewStatsMessage encodes a host stats sample for the health widget.
func NewStatsMessage(payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: "system.stats", Payload: payload})
}

// NewErrorMessage encodes an error for delivery to a single client.
func NewErrorMessage(text string) []byte {
	b, _ := json.Marshal(Message{Type: "error", Payload: text})
	return b
}
