package netsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"isoclient/internal/geometry"
	"isoclient/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startServer runs handler on every accepted connection and returns a
// connected client.
func startServer(t *testing.T, handler func(conn *websocket.Conn)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, url, Options{Buffer: 4, WriteTimeout: time.Second})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Errorf("marshal failed: %v", err)
		return
	}
	if err := conn.WriteJSON(Envelope{Type: kind, Payload: raw}); err != nil {
		t.Errorf("write failed: %v", err)
	}
}

func waitForUpdates(t *testing.T, c *Client, n int) []Update {
	t.Helper()
	var got []Update
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < n && time.Now().Before(deadline) {
		got = append(got, c.Drain()...)
		time.Sleep(5 * time.Millisecond)
	}
	if len(got) < n {
		t.Fatalf("Expected %d updates, got %d", n, len(got))
	}
	return got
}

func TestClientReceivesWelcomeAndSyncs(t *testing.T) {
	dest := geometry.Pt(64, 32)
	release := make(chan struct{})
	client := startServer(t, func(conn *websocket.Conn) {
		writeEnvelope(t, conn, TypeWelcome, Welcome{ID: "me", Position: geometry.Pt(10, 20), Layer: 1})
		writeEnvelope(t, conn, TypeSync, Sync{Entities: []Snapshot{
			{ID: "other", Position: geometry.Pt(1, 2), Destination: &dest},
		}})
		writeEnvelope(t, conn, "chat", map[string]string{"text": "ignored"})

		binary, err := EncodeSync(Sync{Entities: []Snapshot{
			{ID: "other", Position: geometry.Pt(3, 4), ConnectionStatus: StatusDisconnected},
		}})
		if err != nil {
			t.Errorf("EncodeSync failed: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, binary); err != nil {
			t.Errorf("binary write failed: %v", err)
		}
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	updates := waitForUpdates(t, client, 3)

	if w := updates[0].Welcome; w == nil || w.ID != "me" || w.Layer != 1 || w.Position != geometry.Pt(10, 20) {
		t.Errorf("Expected welcome for me, got %+v", updates[0])
	}

	s := updates[1].Sync
	if s == nil || len(s.Entities) != 1 {
		t.Fatalf("Expected a JSON sync, got %+v", updates[1])
	}
	if s.Entities[0].Destination == nil || *s.Entities[0].Destination != dest {
		t.Errorf("Expected destination %v, got %+v", dest, s.Entities[0])
	}

	b := updates[2].Sync
	if b == nil || len(b.Entities) != 1 || !b.Entities[0].Disconnected() {
		t.Fatalf("Expected a binary disconnect sync, got %+v", updates[2])
	}
	if b.Entities[0].Position != geometry.Pt(3, 4) || b.Entities[0].Destination != nil {
		t.Errorf("Binary snapshot decoded wrong: %+v", b.Entities[0])
	}
}

func TestClientSendsMove(t *testing.T) {
	received := make(chan Envelope, 1)
	client := startServer(t, func(conn *websocket.Conn) {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Errorf("server read failed: %v", err)
			return
		}
		received <- env
	})

	if err := client.SendMove(geometry.Pt(12, 34)); err != nil {
		t.Fatalf("SendMove failed: %v", err)
	}

	select {
	case env := <-received:
		if env.Type != TypeMove {
			t.Errorf("Expected type %q, got %q", TypeMove, env.Type)
		}
		var p geometry.Point
		if err := json.Unmarshal(env.Payload, &p); err != nil || p != geometry.Pt(12, 34) {
			t.Errorf("Expected payload (12,34), got %s (%v)", env.Payload, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server never received the move")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	release := make(chan struct{})
	client := startServer(t, func(conn *websocket.Conn) { <-release })
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil error on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDeliverDropsOldest(t *testing.T) {
	c := &Client{updates: make(chan Update, 2), log: logger.WithComponent("test")}
	for i := 0; i < 3; i++ {
		c.deliver(Update{Sync: &Sync{Entities: []Snapshot{{ID: "other", Layer: i}}}})
	}

	got := c.Drain()
	if len(got) != 2 || got[0].Sync.Entities[0].Layer != 1 || got[1].Sync.Entities[0].Layer != 2 {
		t.Errorf("Expected the two newest updates, got %+v", got)
	}
	if len(c.Drain()) != 0 {
		t.Errorf("Drain must empty the buffer")
	}
}

func TestWelcomeSurvivesFullBuffer(t *testing.T) {
	c := &Client{updates: make(chan Update, 2), log: logger.WithComponent("test")}
	c.deliver(Update{Welcome: &Welcome{ID: "me"}})
	for i := 0; i < 5; i++ {
		c.deliver(Update{Sync: &Sync{Entities: []Snapshot{{ID: "other", Layer: i}}}})
	}

	got := c.Drain()
	if len(got) != 3 {
		t.Fatalf("Expected the welcome plus two syncs, got %d updates", len(got))
	}
	if got[0].Welcome == nil || got[0].Welcome.ID != "me" {
		t.Errorf("Expected the welcome first, got %+v", got[0])
	}
	if got[1].Sync == nil || got[2].Sync.Entities[0].Layer != 4 {
		t.Errorf("Expected the newest syncs after the welcome, got %+v", got[1:])
	}
	if len(c.Drain()) != 0 {
		t.Errorf("The welcome must be delivered once")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := decode(websocket.TextMessage, []byte("{not json")); err == nil {
		t.Errorf("Expected an error for malformed JSON")
	}
	if _, err := decode(websocket.BinaryMessage, []byte{0xc1}); err == nil {
		t.Errorf("Expected an error for malformed msgpack")
	}
	if u, err := decode(websocket.TextMessage, []byte(`{"type":"chat"}`)); err != nil || u != nil {
		t.Errorf("Unknown message types must be ignored, got %+v %v", u, err)
	}
}
