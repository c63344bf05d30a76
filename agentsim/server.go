// Package agentsim is a local stand-in for the remote agent: it
// serves the duplex channel and the fallback endpoint the client
// expects, answering with canned replies. Used by the sim command and
// by tests.
package agentsim

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seven0070/yumiai/models"
)

var cannedReplies = []string{
	"Hello! I'm here.",
	"Tell me more about that.",
	"Interesting. What happened next?",
	"I see. Anything else on your mind?",
}

// Server simulates the remote agent over both transports.
type Server struct {
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader

	mu    sync.Mutex
	turns int
}

// New creates a simulator. An empty origin list allows every origin.
func New(allowedOrigins []string) *Server {
	origins := make(map[string]bool)
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	s := &Server{allowedOrigins: origins}
	// Bound once: allowedOrigins is read-only after construction, so
	// concurrent upgrades share it safely.
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // allow non-browser clients
	}
	return s.allowedOrigins[origin]
}

func (s *Server) nextReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply := cannedReplies[s.turns%len(cannedReplies)]
	s.turns++
	return reply
}

// Handler returns the full simulator mux: /ws, /chat and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("agentsim: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("agentsim: connection closed unexpectedly: %v", err)
			}
			return
		}

		var msg models.OutboundMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != models.TypeText {
			log.Printf("agentsim: dropping invalid frame")
			s.writeEvent(conn, models.TypeEmotion, "confused", 0)
			continue
		}

		s.writeEvent(conn, models.TypeEmotion, "happy", 0)
		s.writeEvent(conn, models.TypeTextResponse, s.nextReply(), 0)
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, kind, content string, durationMs int) {
	raw, err := json.Marshal(content)
	if err != nil {
		return
	}
	ev := models.InboundMessage{Type: kind, Content: raw, DurationMs: durationMs}
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf("agentsim: write failed: %v", err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.ChatResponse{
		Text:    s.nextReply(),
		Emotion: "neutral",
	})
}

// Run serves the simulator on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("agentsim: listening on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
