package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seven0070/yumiai/agentsim"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client never reached state %s (now %s)", want, c.State())
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	want := []time.Duration{
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
		30000 * time.Millisecond,
	}
	for i, w := range want {
		attempt := i + 1
		if got := backoffDelay(attempt, reconnectBaseDelay, reconnectMaxDelay); got != w {
			t.Errorf("attempt %d: delay = %s, want %s", attempt, got, w)
		}
	}
}

func TestSendMessageRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(agentsim.New(nil).Handler())
	defer srv.Close()

	c := New(wsURL(srv), srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Close()
	waitForState(t, c, StateOpen)

	reply := c.SendMessage(ctx, "hello")
	if reply == nil {
		t.Fatal("expected a reply over the open channel")
	}
	if reply.Text == "" {
		t.Fatal("reply carried no text")
	}
	if st := c.Status(); st.LastLatency <= 0 {
		t.Errorf("round-trip latency not recorded: %+v", st)
	}
}

func TestSendMessageTimeoutResolvesNil(t *testing.T) {
	t.Parallel()

	// A channel endpoint that accepts the connection and never answers.
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	defer srv.Close()

	c := New("ws"+strings.TrimPrefix(srv.URL, "http"), srv.URL)
	c.replyTimeout = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Close()
	waitForState(t, c, StateOpen)

	if reply := c.SendMessage(ctx, "anyone there?"); reply != nil {
		t.Fatalf("expected nil on deadline expiry, got %+v", reply)
	}
}

func TestSendMessageFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hi"}`))
	}))
	defer srv.Close()

	// Never started: the duplex channel is not open, so the fallback
	// exchange is used.
	c := New("ws://127.0.0.1:1/ws", srv.URL)
	reply := c.SendMessage(context.Background(), "x")
	if reply == nil {
		t.Fatal("expected a fallback reply")
	}
	if reply.Text != "hi" {
		t.Errorf("fallback text = %q, want %q", reply.Text, "hi")
	}
}

func TestSendMessageFallbackFailureResolvesNil(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("ws://127.0.0.1:1/ws", srv.URL)
	if reply := c.SendMessage(context.Background(), "x"); reply != nil {
		t.Fatalf("expected nil on fallback failure, got %+v", reply)
	}
}

func TestReconnectGivesUpAfterCap(t *testing.T) {
	t.Parallel()

	// Nothing listens here; every dial fails fast.
	c := New("ws://127.0.0.1:1/ws", "http://127.0.0.1:1")
	c.baseDelay = time.Millisecond
	c.maxDelay = 4 * time.Millisecond

	var mu sync.Mutex
	var disconnects []int
	c.Subscribe(EventDisconnected, func(ev Event) {
		mu.Lock()
		disconnects = append(disconnects, ev.Attempt)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connect loop did not stop after exhausting retries")
	}

	mu.Lock()
	got := len(disconnects)
	mu.Unlock()
	// Initial attempt plus five scheduled reconnections.
	if got != maxReconnectAttempts+1 {
		t.Fatalf("expected %d failed attempts, got %d", maxReconnectAttempts+1, got)
	}
	if c.State() != StateClosed {
		t.Errorf("state after giving up = %s, want closed", c.State())
	}

	// No sixth automatic reconnection ever happens.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(disconnects) != got {
		t.Fatal("reconnection attempted after the cap")
	}
}

func TestReconnectAfterServerDrop(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(agentsim.New(nil).Handler())
	defer srv.Close()

	c := New(wsURL(srv), srv.URL)
	c.baseDelay = time.Millisecond

	var mu sync.Mutex
	connects := 0
	c.Subscribe(EventConnected, func(Event) {
		mu.Lock()
		connects++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Close()
	waitForState(t, c, StateOpen)

	// Drop the active connection; the client dials again and the
	// attempt counter resets on success.
	c.Close()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := connects
		mu.Unlock()
		if n >= 2 && c.State() == StateOpen {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	n := connects
	mu.Unlock()
	if n < 2 {
		t.Fatal("client did not reconnect after the channel dropped")
	}
	if st := c.Status(); st.ReconnectAttempt != 0 {
		t.Errorf("attempt counter not reset on successful open: %d", st.ReconnectAttempt)
	}
}

func TestSubscriptionTokenUnsubscribes(t *testing.T) {
	t.Parallel()

	b := newBus()
	var calls int
	sub := b.subscribe(EventTextReceived, func(Event) { calls++ })

	b.publish(Event{Kind: EventTextReceived, Text: "one"})
	b.unsubscribe(sub)
	b.publish(Event{Kind: EventTextReceived, Text: "two"})
	b.unsubscribe(sub) // idempotent

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
}

func TestMalformedPayloadsAreDropped(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery","content":"?"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"text_response","content":"still here"}`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := New("ws"+strings.TrimPrefix(srv.URL, "http"), srv.URL)

	texts := make(chan string, 8)
	c.Subscribe(EventTextReceived, func(ev Event) { texts <- ev.Text })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Close()

	select {
	case got := <-texts:
		if got != "still here" {
			t.Fatalf("unexpected text event %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("valid event after malformed payloads never arrived")
	}

	select {
	case got := <-texts:
		t.Fatalf("malformed payload produced an event: %q", got)
	default:
	}
}
