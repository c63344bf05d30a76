package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/seven0070/yumiai/models"
)

const (
	reconnectBaseDelay   = time.Second
	reconnectMaxDelay    = 30 * time.Second
	maxReconnectAttempts = 5
	defaultReplyTimeout  = 10 * time.Second
	fallbackHTTPTimeout  = 60 * time.Second
)

// State is the connection lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Status is a read-only snapshot of the connection.
type Status struct {
	State            State
	ReconnectAttempt int
	LastLatency      time.Duration
}

// Client owns the duplex channel to the remote agent and the fallback
// request/response exchange against the same logical endpoint. All
// failures resolve as "no result": the avatar must stay fully usable
// with the agent absent.
type Client struct {
	agentURL    string
	fallbackURL string
	httpClient  *http.Client
	bus         *bus

	replyTimeout time.Duration
	baseDelay    time.Duration
	maxDelay     time.Duration

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	attempt     int
	lastLatency time.Duration

	writeMu sync.Mutex
	done    chan struct{}
}

// New creates a client for the given duplex endpoint (ws://...) and
// fallback base URL (http://...). Nothing connects until Start.
func New(agentURL, fallbackURL string) *Client {
	return &Client{
		agentURL:     agentURL,
		fallbackURL:  fallbackURL,
		httpClient:   &http.Client{Timeout: fallbackHTTPTimeout},
		bus:          newBus(),
		replyTimeout: defaultReplyTimeout,
		baseDelay:    reconnectBaseDelay,
		maxDelay:     reconnectMaxDelay,
		state:        StateConnecting,
		done:         make(chan struct{}),
	}
}

// Subscribe registers fn for one event kind and returns a cancellable
// token.
func (c *Client) Subscribe(kind EventKind, fn func(Event)) Subscription {
	return c.bus.subscribe(kind, fn)
}

// Unsubscribe releases a subscription token. Idempotent.
func (c *Client) Unsubscribe(s Subscription) {
	c.bus.unsubscribe(s)
}

// Start launches the connect/read loop. It returns immediately; the
// loop runs until ctx is cancelled or the reconnect cap is exhausted.
func (c *Client) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed when the connect loop has stopped for good.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	for {
		c.setState(StateConnecting)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.agentURL, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.state = StateOpen
			c.attempt = 0
			c.mu.Unlock()
			log.Printf("client: connected to %s", c.agentURL)
			c.bus.publish(Event{Kind: EventConnected})

			c.readLoop(conn)

			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
		} else {
			log.Printf("client: connect to %s failed: %v", c.agentURL, err)
		}

		c.setState(StateClosed)

		c.mu.Lock()
		c.attempt++
		attempt := c.attempt
		c.mu.Unlock()
		c.bus.publish(Event{Kind: EventDisconnected, Attempt: attempt})

		if ctx.Err() != nil {
			return
		}
		if attempt > maxReconnectAttempts {
			log.Printf("client: reconnect attempts exhausted after %d tries, no further retries until restart", maxReconnectAttempts)
			return
		}

		delay := backoffDelay(attempt, c.baseDelay, c.maxDelay)
		log.Printf("client: reconnecting in %s (attempt %d/%d)", delay, attempt, maxReconnectAttempts)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// backoffDelay doubles per attempt from base, capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("client: channel closed unexpectedly: %v", err)
			}
			conn.Close()
			return
		}

		var msg models.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("client: dropping malformed payload: %v", err)
			continue
		}

		switch msg.Type {
		case models.TypeTextResponse:
			text, ok := msg.TextContent()
			if !ok {
				log.Printf("client: dropping text_response with non-string content")
				continue
			}
			c.bus.publish(Event{Kind: EventTextReceived, Text: text})
		case models.TypeAudioResponse:
			c.bus.publish(Event{
				Kind:     EventAudioReceived,
				Audio:    []byte(msg.Content),
				Duration: time.Duration(msg.DurationMs) * time.Millisecond,
			})
		case models.TypeEmotion:
			emotion, ok := msg.TextContent()
			if !ok {
				log.Printf("client: dropping emotion with non-string content")
				continue
			}
			c.bus.publish(Event{Kind: EventEmotionChanged, Emotion: emotion})
		default:
			log.Printf("client: dropping message with unknown type %q", msg.Type)
		}
	}
}

// SendMessage sends a user message to the agent. With the channel open
// it writes a correlated frame and waits for the first text response
// up to the reply deadline; otherwise it falls back to a single POST
// /chat exchange. A nil return means the agent did not answer — a
// normal outcome, never an error.
func (c *Client) SendMessage(ctx context.Context, text string) *models.ChatResponse {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if open && conn != nil {
		return c.sendDuplex(ctx, conn, text)
	}
	return c.sendFallback(ctx, text)
}

func (c *Client) sendDuplex(ctx context.Context, conn *websocket.Conn, text string) *models.ChatResponse {
	replyCh := make(chan models.ChatResponse, 1)
	sub := c.bus.subscribe(EventTextReceived, func(ev Event) {
		select {
		case replyCh <- models.ChatResponse{Text: ev.Text}:
		default:
		}
	})
	defer c.bus.unsubscribe(sub)

	out := models.OutboundMessage{
		Type:      models.TypeText,
		ID:        uuid.New().String(),
		Content:   text,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("client: failed to marshal message: %v", err)
		return nil
	}
	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		log.Printf("client: write failed: %v", err)
		return nil
	}

	start := time.Now()
	select {
	case reply := <-replyCh:
		c.mu.Lock()
		c.lastLatency = time.Since(start)
		c.mu.Unlock()
		return &reply
	case <-time.After(c.replyTimeout):
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (c *Client) sendFallback(ctx context.Context, text string) *models.ChatResponse {
	body, err := json.Marshal(models.ChatRequest{
		Message:   text,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("client: failed to marshal fallback request: %v", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.fallbackURL+"/chat", bytes.NewReader(body))
	if err != nil {
		log.Printf("client: failed to create fallback request: %v", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("client: fallback request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("client: failed to read fallback response: %v", err)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("client: fallback returned %d: %s", resp.StatusCode, string(respBody))
		return nil
	}

	var reply models.ChatResponse
	if err := json.Unmarshal(respBody, &reply); err != nil {
		log.Printf("client: failed to parse fallback response: %v", err)
		return nil
	}

	c.mu.Lock()
	c.lastLatency = time.Since(start)
	c.mu.Unlock()

	// Surface the fallback reply on the bus so subscribers see one
	// consistent event stream regardless of transport.
	c.bus.publish(Event{Kind: EventTextReceived, Text: reply.Text})
	return &reply
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Status returns a snapshot of the connection state, reconnect attempt
// counter and last measured round-trip latency.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:            c.state,
		ReconnectAttempt: c.attempt,
		LastLatency:      c.lastLatency,
	}
}

// Close tears down the active channel, which unblocks the read loop.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
