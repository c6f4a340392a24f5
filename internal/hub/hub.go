package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Subscription filters the station boards a client receives. An empty
// StationID subscribes to every station.
type Subscription struct {
	StationID string
}

type Client struct {
	ID           string
	Send         chan []byte
	Subscription Subscription
}

// Hub fans station-board updates out to connected display clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type SubscribeMessage struct {
	Action    string `json:"action"`
	StationID string `json:"station_id"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Subscription = sub
}

// Broadcast delivers a station update to every matching client. Slow
// clients drop messages rather than block the sender.
func (h *Hub) Broadcast(stationID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Subscription.StationID != "" && client.Subscription.StationID != stationID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop message for client %s", client.ID)
		}
	}
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
