package models

import "encoding/json"

// Message type constants for the duplex channel.
const (
	TypeText          = "text"
	TypeTextResponse  = "text_response"
	TypeAudioResponse = "audio_response"
	TypeEmotion       = "emotion"
)

// OutboundMessage is a user message sent over the duplex channel.
type OutboundMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// InboundMessage is a raw agent event read from the duplex channel.
// Content is type-dependent: a string for text_response and emotion,
// arbitrary JSON for audio_response.
type InboundMessage struct {
	Type       string          `json:"type"`
	Content    json.RawMessage `json:"content"`
	DurationMs int             `json:"duration_ms,omitempty"`
}

// TextContent decodes Content as a plain string. Returns "" and false
// when the payload is not a JSON string.
func (m InboundMessage) TextContent() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// ChatRequest is the body of the fallback POST /chat exchange.
type ChatRequest struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ChatResponse is an agent reply, from either the duplex channel or
// the fallback endpoint.
type ChatResponse struct {
	Text     string `json:"text"`
	Emotion  string `json:"emotion,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// ConversationTurn is one entry in a session transcript.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
