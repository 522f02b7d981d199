package channel

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

// wsServer is a lightweight stand-in for the vehicle-control process.
type wsServer struct {
	srv      *httptest.Server
	URL      string
	upgrades atomic.Int64

	mu    sync.Mutex
	conns []*websocket.Conn
}

// newWSServer starts a websocket endpoint. onConn runs per accepted
// connection; pass nil to just hold the connection open.
func newWSServer(t *testing.T, onConn func(*websocket.Conn)) *wsServer {
	t.Helper()

	s := &wsServer{}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.upgrades.Add(1)
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		if onConn != nil {
			onConn(conn)
			return
		}
		// Drain inbound frames until the peer goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	s.URL = "ws" + strings.TrimPrefix(s.srv.URL, "http")

	t.Cleanup(func() {
		s.srv.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
	})
	return s
}

func newTestClient(t *testing.T, url string) Client {
	t.Helper()
	c, err := NewClient(&ClientConfig{
		URL:                  url,
		ReconnectDelay:       20 * time.Millisecond,
		MaxReconnectAttempts: 2,
		HeartbeatInterval:    30 * time.Millisecond,
		HandshakeTimeout:     time.Second,
	}, log.NewNopLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Disconnect)
	return c
}

func waitForStatus(t *testing.T, c Client, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Status() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("client never reached status %q (stuck at %q)", want, c.Status())
}

func TestSendWhileDisconnected(t *testing.T) {
	c := newTestClient(t, "ws://127.0.0.1:1") // never connected

	if err := c.Send(Start("qcar-0")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send while disconnected = %v, want ErrNotConnected", err)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	s := newWSServer(t, nil)
	c := newTestClient(t, s.URL)

	c.Connect()
	c.Connect()
	c.Connect()
	waitForStatus(t, c, StatusConnected)

	// Give any superfluous dials time to land.
	time.Sleep(100 * time.Millisecond)
	if got := s.upgrades.Load(); got != 1 {
		t.Errorf("server saw %d connections, want 1", got)
	}
}

func TestSendReachesServer(t *testing.T) {
	received := make(chan []byte, 16)
	s := newWSServer(t, func(conn *websocket.Conn) {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- payload
		}
	})
	c := newTestClient(t, s.URL)
	c.Connect()
	waitForStatus(t, c, StatusConnected)

	if err := c.Send(SetVelocity("qcar-0", 1.2)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload := <-received:
			var got map[string]any
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("server received invalid JSON: %v", err)
			}
			if got["type"] == "ping" {
				continue // heartbeat frames interleave with commands
			}
			if got["type"] != "set_velocity" || got["target"] != "qcar-0" || got["v_ref"] != 1.2 {
				t.Fatalf("unexpected frame: %v", got)
			}
			return
		case <-deadline:
			t.Fatal("server never received the command")
		}
	}
}

func TestHeartbeatWhileConnected(t *testing.T) {
	received := make(chan map[string]any, 16)
	s := newWSServer(t, func(conn *websocket.Conn) {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m map[string]any
			if json.Unmarshal(payload, &m) == nil {
				received <- m
			}
		}
	})
	c := newTestClient(t, s.URL)
	c.Connect()
	waitForStatus(t, c, StatusConnected)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-received:
			if m["type"] == "ping" {
				return
			}
		case <-deadline:
			t.Fatal("no heartbeat observed")
		}
	}
}

func TestDispatchByKind(t *testing.T) {
	frames := []string{
		`{"type":"telemetry","vehicle_id":"qcar-0","x":1.5}`,
		`{"type":"v2v_status","vehicle_id":"qcar-0","v2v_active":true}`,
		`{"type":"vehicle_status","vehicle_id":"qcar-1","status":"connected"}`,
		`{"type":"mystery","payload":42}`,
	}
	s := newWSServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := newTestClient(t, s.URL)

	telemetry := make(chan MessageKind, 16)
	v2v := make(chan MessageKind, 16)
	status := make(chan MessageKind, 16)
	wildcard := make(chan MessageKind, 16)

	c.Subscribe(KindTelemetry, func(kind MessageKind, _ []byte) { telemetry <- kind })
	c.Subscribe(KindV2VStatus, func(kind MessageKind, _ []byte) { v2v <- kind })
	c.Subscribe(KindVehicleStatus, func(kind MessageKind, _ []byte) { status <- kind })
	c.Subscribe(KindAny, func(kind MessageKind, _ []byte) { wildcard <- kind })

	c.Connect()
	waitForStatus(t, c, StatusConnected)

	collect := func(ch chan MessageKind, n int) []MessageKind {
		var got []MessageKind
		deadline := time.After(2 * time.Second)
		for len(got) < n {
			select {
			case k := <-ch:
				got = append(got, k)
			case <-deadline:
				t.Fatalf("timed out with %d of %d kinds: %v", len(got), n, got)
			}
		}
		return got
	}

	// telemetry set receives both telemetry and v2v_status, in order.
	gotTelemetry := collect(telemetry, 2)
	if gotTelemetry[0] != KindTelemetry || gotTelemetry[1] != KindV2VStatus {
		t.Errorf("telemetry set got %v", gotTelemetry)
	}

	if got := collect(v2v, 1); got[0] != KindV2VStatus {
		t.Errorf("v2v set got %v", got)
	}
	if got := collect(status, 1); got[0] != KindVehicleStatus {
		t.Errorf("status set got %v", got)
	}

	// Wildcard sees all four, including the unknown kind.
	gotAll := collect(wildcard, 4)
	if gotAll[3] != MessageKind("mystery") {
		t.Errorf("wildcard got %v", gotAll)
	}

	// The unknown kind must not have leaked into a typed set.
	select {
	case k := <-telemetry:
		t.Errorf("telemetry set received unexpected kind %q", k)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMalformedFrameIsDropped(t *testing.T) {
	s := newWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{{{not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"no_type_field":1}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"telemetry","vehicle_id":"qcar-0"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := newTestClient(t, s.URL)
	got := make(chan MessageKind, 16)
	c.Subscribe(KindAny, func(kind MessageKind, _ []byte) { got <- kind })
	c.Connect()
	waitForStatus(t, c, StatusConnected)

	select {
	case k := <-got:
		if k != KindTelemetry {
			t.Errorf("first dispatched kind = %q, want telemetry", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after malformed ones was never dispatched")
	}

	// Connection must have survived the malformed frames.
	if c.Status() != StatusConnected {
		t.Errorf("status = %q after malformed frames, want connected", c.Status())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := newWSServer(t, nil)
	c := newTestClient(t, s.URL)

	got := make(chan MessageKind, 16)
	unsub := c.Subscribe(KindTelemetry, func(kind MessageKind, _ []byte) { got <- kind })
	unsub()

	c.Connect()
	waitForStatus(t, c, StatusConnected)

	s.mu.Lock()
	conn := s.conns[0]
	s.mu.Unlock()
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"telemetry","vehicle_id":"qcar-0"}`))

	select {
	case <-got:
		t.Fatal("disposed subscription still received a message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPeerCloseTriggersReconnect(t *testing.T) {
	s := newWSServer(t, func(conn *websocket.Conn) {
		conn.Close() // drop every connection immediately
	})
	c := newTestClient(t, s.URL)
	c.Connect()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.upgrades.Load() >= 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no automatic reconnect observed (%d connections)", s.upgrades.Load())
}

func TestReconnectBound(t *testing.T) {
	// A server that is already gone: every dial fails.
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := "ws" + strings.TrimPrefix(s.URL, "http")
	s.Close()

	c := newTestClient(t, url)
	c.Connect()

	// With delay 20ms and 2 attempts the client settles fast; leave slack.
	time.Sleep(400 * time.Millisecond)

	if got := c.Attempts(); got != 2 {
		t.Errorf("attempts = %d, want exactly the configured bound 2", got)
	}
	if c.Status() != StatusDisconnected {
		t.Errorf("status = %q, want disconnected", c.Status())
	}

	// No further timers may be pending.
	before := c.Attempts()
	time.Sleep(200 * time.Millisecond)
	if got := c.Attempts(); got != before {
		t.Errorf("attempts advanced from %d to %d after exhaustion", before, got)
	}
}

func TestExplicitDisconnectSuppressesReconnect(t *testing.T) {
	s := newWSServer(t, nil)
	c := newTestClient(t, s.URL)
	c.Connect()
	waitForStatus(t, c, StatusConnected)

	c.Disconnect()
	waitForStatus(t, c, StatusDisconnected)

	// Well past several reconnect delays: no new connection may appear.
	time.Sleep(200 * time.Millisecond)
	if got := s.upgrades.Load(); got != 1 {
		t.Errorf("server saw %d connections after explicit disconnect, want 1", got)
	}
	if err := c.Send(Stop("qcar-0")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after disconnect = %v, want ErrNotConnected", err)
	}
}

func TestStatusListener(t *testing.T) {
	s := newWSServer(t, nil)
	c := newTestClient(t, s.URL)

	var mu sync.Mutex
	var transitions []Status
	c.OnStatusChange(func(st Status) {
		mu.Lock()
		transitions = append(transitions, st)
		mu.Unlock()
	})

	c.Connect()
	waitForStatus(t, c, StatusConnected)
	c.Disconnect()
	waitForStatus(t, c, StatusDisconnected)

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusConnecting, StatusConnected, StatusDisconnected}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}
