package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenAggApp/internal/domain/model"
)

func TestSubscribed(t *testing.T) {
	all := map[string]struct{}{ChannelAll: {}}
	assert.True(t, subscribed(all, ChannelPriceUpdates))
	assert.True(t, subscribed(all, ChannelVolumeSpikes))

	only := map[string]struct{}{ChannelNewTokens: {}}
	assert.True(t, subscribed(only, ChannelNewTokens))
	assert.False(t, subscribed(only, ChannelPriceUpdates))
}

func TestResubscribe_ValidatesChannels(t *testing.T) {
	b := NewWebSocketBroadcaster()
	conn := &websocket.Conn{}
	b.clients[conn] = map[string]struct{}{ChannelAll: {}}

	b.resubscribe(conn, []string{ChannelPriceUpdates, "bogus_channel"})
	assert.Equal(t, map[string]struct{}{ChannelPriceUpdates: {}}, b.clients[conn])

	// nothing valid requested: back to all
	b.resubscribe(conn, []string{"bogus_channel"})
	assert.Equal(t, map[string]struct{}{ChannelAll: {}}, b.clients[conn])

	b.resubscribe(conn, nil)
	assert.Equal(t, map[string]struct{}{ChannelAll: {}}, b.clients[conn])
}

func TestResubscribe_IgnoresUnknownConn(t *testing.T) {
	b := NewWebSocketBroadcaster()
	stranger := &websocket.Conn{}
	b.resubscribe(stranger, []string{ChannelPriceUpdates})
	assert.NotContains(t, b.clients, stranger)
}

func dialTestClient(t *testing.T, b *WebSocketBroadcaster) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.clients) == 1
	}, time.Second, 5*time.Millisecond, "connection never registered")
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestBroadcaster_NewClientReceivesEverything(t *testing.T) {
	b := NewWebSocketBroadcaster()
	conn := dialTestClient(t, b)

	b.OnPriceUpdate(model.PriceUpdateEvent{Address: "mint1", NewPrice: 1.5})
	msg := readEnvelope(t, conn)
	assert.Equal(t, ChannelPriceUpdates, msg.Channel)

	b.BroadcastSnapshot([]*model.Token{{Address: "mint1"}})
	msg = readEnvelope(t, conn)
	assert.Equal(t, ChannelAll, msg.Channel)
}

func TestBroadcaster_SubscriptionRoutesEvents(t *testing.T) {
	b := NewWebSocketBroadcaster()
	conn := dialTestClient(t, b)

	req, err := json.Marshal(subscribeRequest{Type: "subscribe", Channels: []string{ChannelVolumeSpikes}})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, channels := range b.clients {
			if _, ok := channels[ChannelVolumeSpikes]; ok && len(channels) == 1 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "subscribe never applied")

	// filtered out by the subscription, then a matching event
	b.OnPriceUpdate(model.PriceUpdateEvent{Address: "mint1"})
	b.OnVolumeSpike(model.VolumeSpikeEvent{Address: "mint1", PercentChange: 80})

	msg := readEnvelope(t, conn)
	assert.Equal(t, ChannelVolumeSpikes, msg.Channel)
}
