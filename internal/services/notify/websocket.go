package notify

import (
	"encoding/json"

	"farmguardian/internal/services/websocket"
)

// WebsocketChannel pushes alerts to the user's live websocket connections.
type WebsocketChannel struct {
	hub *websocket.HubService
}

func NewWebsocketChannel(hub *websocket.HubService) *WebsocketChannel {
	return &WebsocketChannel{hub: hub}
}

func (c *WebsocketChannel) Name() string { return "websocket" }

func (c *WebsocketChannel) Send(userID int64, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	c.hub.SendToUser(userID, payload)
	return nil
}
