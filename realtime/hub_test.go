package realtime_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ordering/realtime"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsPair dials the test server and returns the customer-side connection
// plus the hub client wrapping the server side.
func wsPair(t *testing.T, serverConns chan *websocket.Conn, url string) (*websocket.Conn, *realtime.Client) {
	t.Helper()
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	select {
	case conn := <-serverConns:
		return peer, realtime.NewClient(conn)
	case <-time.After(2 * time.Second):
		t.Fatal("server side of websocket never arrived")
		return nil, nil
	}
}

func readEvent(t *testing.T, peer *websocket.Conn) realtime.Message {
	t.Helper()
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := peer.ReadMessage()
	require.NoError(t, err)
	var msg realtime.Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHubBroadcastReachesAllRoomMembers(t *testing.T) {
	serverConns := make(chan *websocket.Conn, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	hub := realtime.NewHub()

	peerA, clientA := wsPair(t, serverConns, wsURL)
	peerB, clientB := wsPair(t, serverConns, wsURL)
	peerC, clientC := wsPair(t, serverConns, wsURL)

	hub.Join(7, clientA)
	hub.Join(7, clientB)
	hub.Join(8, clientC)
	assert.Equal(t, 2, hub.RoomSize(7))
	assert.Equal(t, 1, hub.RoomSize(8))

	hub.BroadcastCartUpdate(7, map[string]string{"sub_total": "29.97"})

	for _, peer := range []*websocket.Conn{peerA, peerB} {
		msg := readEvent(t, peer)
		assert.Equal(t, realtime.EventCartUpdated, msg.Event)
		data, ok := msg.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "29.97", data["sub_total"])
	}

	// The other room hears nothing.
	require.NoError(t, peerC.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := peerC.ReadMessage()
	assert.Error(t, err)
}

func TestHubLeaveEmptiesRoom(t *testing.T) {
	serverConns := make(chan *websocket.Conn, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	hub := realtime.NewHub()
	_, client := wsPair(t, serverConns, wsURL)

	hub.Join(3, client)
	require.Equal(t, 1, hub.RoomSize(3))

	hub.Leave(client)
	assert.Equal(t, 0, hub.RoomSize(3))

	// Leaving twice is harmless.
	hub.Leave(client)
	assert.Equal(t, 0, hub.RoomSize(3))
}

func TestHubDropsDeadPeerOnBroadcast(t *testing.T) {
	serverConns := make(chan *websocket.Conn, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	hub := realtime.NewHub()
	peerLive, clientLive := wsPair(t, serverConns, wsURL)
	_, clientDead := wsPair(t, serverConns, wsURL)

	hub.Join(5, clientLive)
	hub.Join(5, clientDead)
	clientDead.Close()

	hub.BroadcastCartUpdate(5, map[string]string{"sub_total": "0.00"})

	msg := readEvent(t, peerLive)
	assert.Equal(t, realtime.EventCartUpdated, msg.Event)
	assert.Equal(t, 1, hub.RoomSize(5))
}
