package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsHub "github.com/erickmeikoki/job-trends-data/internal/ws"
)

// --- helpers ----------------------------------------------------------------

// startHub starts a test HTTP server with the hub as its handler.
// Returns the ws:// URL and the hub; cleanup stops both.
func startHub(t *testing.T) (string, *wsHub.Hub) {
	t.Helper()

	hub := wsHub.New()
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var msg wsHub.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal envelope: %v (raw: %s)", err, raw)
	}
	return msg
}

func waitForClients(t *testing.T, hub *wsHub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count: got %d, want %d", hub.Count(), want)
}

// --- tests ------------------------------------------------------------------

func TestBroadcastReachesAllClients(t *testing.T) {
	url, hub := startHub(t)

	c1 := dial(t, url)
	c2 := dial(t, url)
	waitForClients(t, hub, 2)

	hub.Broadcast(wsHub.EventRun, map[string]int{"run_id": 7})

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg := readMessage(t, conn)
		if msg.Event != wsHub.EventRun {
			t.Errorf("event: got %q, want %q", msg.Event, wsHub.EventRun)
		}
		data, ok := msg.Data.(map[string]any)
		if !ok || data["run_id"] != float64(7) {
			t.Errorf("data: got %#v, want run_id 7", msg.Data)
		}
	}
}

func TestLastRunReplayedOnConnect(t *testing.T) {
	url, hub := startHub(t)

	hub.Broadcast(wsHub.EventRun, map[string]int{"run_id": 3})

	conn := dial(t, url)
	msg := readMessage(t, conn)
	if msg.Event != wsHub.EventRun {
		t.Fatalf("event: got %q, want %q", msg.Event, wsHub.EventRun)
	}
}

func TestAlertEventsNotReplayed(t *testing.T) {
	url, hub := startHub(t)

	hub.Broadcast(wsHub.EventAlert, map[string]string{"rule": "health_floor"})

	conn := dial(t, url)
	waitForClients(t, hub, 1)

	// Only a run broadcast should arrive: the alert predates the connect.
	hub.Broadcast(wsHub.EventRun, map[string]int{"run_id": 1})
	msg := readMessage(t, conn)
	if msg.Event != wsHub.EventRun {
		t.Fatalf("event: got %q, want %q", msg.Event, wsHub.EventRun)
	}
}

func TestCountTracksDisconnect(t *testing.T) {
	url, hub := startHub(t)

	conn := dial(t, url)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestRunClosesConnections(t *testing.T) {
	hub := wsHub.New()
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	waitForClients(t, hub, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
