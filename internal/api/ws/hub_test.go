package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_BroadcastsResults(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	res := &contracts.RouteResult{RunID: "run-1", ThesisID: "fed", Reason: contracts.ReasonNoCandidates}
	require.NoError(t, hub.Publish(context.Background(), contracts.Thesis{ID: "fed"}, res))

	msg := readMessage(t, conn)
	assert.Equal(t, "route_result", msg.Type)
	assert.Equal(t, "fed", msg.ThesisID)
	require.NotNil(t, msg.Payload)
	assert.Equal(t, "run-1", msg.Payload.RunID)
}

func TestHub_SubscriptionFilters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(subscribeMsg{Action: "subscribe", Theses: []string{"btc"}}))

	// 구독 반영을 기다린 뒤 다른 thesis 는 걸러져야 함
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.clients {
			if !c.wants("fed") {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), contracts.Thesis{ID: "fed"}, &contracts.RouteResult{RunID: "skip"}))
	require.NoError(t, hub.Publish(context.Background(), contracts.Thesis{ID: "btc"}, &contracts.RouteResult{RunID: "keep"}))

	msg := readMessage(t, conn)
	assert.Equal(t, "btc", msg.ThesisID)
	assert.Equal(t, "keep", msg.Payload.RunID)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitClients(t, hub, 0)
}

func TestHub_ShutdownReleasesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, url)
	waitClients(t, hub, 1)

	cancel()
	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Zero(t, hub.ClientCount())

	// 서버가 close 프레임을 보내고 연결을 끊음
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Run 종료 후에도 leave 는 막히지 않아야 함
	left := make(chan struct{})
	go func() {
		hub.leave(&client{hub: hub})
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after shutdown")
	}

	// 새 연결은 등록되지 않고 바로 닫힘
	late := dial(t, url)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ClientCount())
}
