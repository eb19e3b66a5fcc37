package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/useCases"
)

// Channel names clients can subscribe to. ChannelAll additionally receives
// the periodic full-snapshot broadcast.
const (
	ChannelAll          = "all"
	ChannelPriceUpdates = "price_updates"
	ChannelVolumeSpikes = "volume_spikes"
	ChannelNewTokens    = "new_tokens"
)

// envelope is the wire format of every pushed message.
type envelope struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// subscribeRequest is the only inbound message clients send.
type subscribeRequest struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

// WebSocketBroadcaster implements the Broadcaster interface: it fans
// aggregator events out to connected clients, routed by channel
// subscription. New connections start subscribed to "all".
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]map[string]struct{} // conn -> subscribed channels
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

var _ useCases.Broadcaster = (*WebSocketBroadcaster)(nil)

func NewWebSocketBroadcaster() *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		clients:  make(map[*websocket.Conn]map[string]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (b *WebSocketBroadcaster) OnPriceUpdate(event model.PriceUpdateEvent) {
	b.broadcast(ChannelPriceUpdates, event)
}

func (b *WebSocketBroadcaster) OnVolumeSpike(event model.VolumeSpikeEvent) {
	b.broadcast(ChannelVolumeSpikes, event)
}

func (b *WebSocketBroadcaster) OnNewToken(token *model.Token) {
	b.broadcast(ChannelNewTokens, token)
}

// BroadcastSnapshot pushes the full token set to "all" subscribers. Driven
// by the scheduler's broadcast ticker.
func (b *WebSocketBroadcaster) BroadcastSnapshot(tokens []*model.Token) {
	b.push(ChannelAll, envelope{Channel: ChannelAll, Data: tokens})
}

// broadcast delivers an event to subscribers of its channel; "all"
// subscribers receive every event type.
func (b *WebSocketBroadcaster) broadcast(channel string, data any) {
	b.push(channel, envelope{Channel: channel, Data: data})
}

func (b *WebSocketBroadcaster) push(channel string, msg envelope) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", channel, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, channels := range b.clients {
		if !subscribed(channels, channel) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

func subscribed(channels map[string]struct{}, channel string) bool {
	if _, ok := channels[ChannelAll]; ok {
		return true
	}
	_, ok := channels[channel]
	return ok
}

// Handler returns an http.HandlerFunc to accept websocket connections.
func (b *WebSocketBroadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = map[string]struct{}{ChannelAll: {}}
		b.mu.Unlock()

		// Read loop: keeps the connection alive and handles subscribe
		// messages until the peer goes away.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					break
				}
				var req subscribeRequest
				if err := json.Unmarshal(raw, &req); err != nil || req.Type != "subscribe" {
					continue
				}
				b.resubscribe(conn, req.Channels)
			}
		}()
	}
}

// resubscribe replaces a client's channel set. An empty list means "all".
func (b *WebSocketBroadcaster) resubscribe(conn *websocket.Conn, channels []string) {
	set := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		switch ch {
		case ChannelAll, ChannelPriceUpdates, ChannelVolumeSpikes, ChannelNewTokens:
			set[ch] = struct{}{}
		}
	}
	if len(set) == 0 {
		set[ChannelAll] = struct{}{}
	}

	b.mu.Lock()
	if _, ok := b.clients[conn]; ok {
		b.clients[conn] = set
	}
	b.mu.Unlock()
}
