// Package bridge translates agent events into mouth animation
// triggers and user input into client sends.
package bridge

import (
	"context"
	"log"
	"time"

	"github.com/seven0070/yumiai/client"
	"github.com/seven0070/yumiai/models"
)

const recordTimeout = 5 * time.Second

// Emotions that mean "the agent has gone quiet": they force immediate
// silence instead of waiting for a natural speak deadline.
var silentEmotions = map[string]bool{
	"idle":    true,
	"neutral": true,
}

// Speaker is the narrow animation surface the bridge drives. The rig
// implements it; it is injected rather than looked up globally.
type Speaker interface {
	Speak(d time.Duration)
}

// Conn is the slice of the client the bridge needs.
type Conn interface {
	Subscribe(kind client.EventKind, fn func(client.Event)) client.Subscription
	Unsubscribe(s client.Subscription)
	SendMessage(ctx context.Context, text string) *models.ChatResponse
}

// Transcript records conversation turns. May be nil (recording
// disabled).
type Transcript interface {
	Record(ctx context.Context, role, content string) error
}

// Bridge subscribes to agent events on construction and releases the
// subscriptions on Close.
type Bridge struct {
	conn       Conn
	speaker    Speaker
	transcript Transcript
	speakFor   time.Duration
	subs       []client.Subscription
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTranscript enables conversation recording.
func WithTranscript(t Transcript) Option {
	return func(b *Bridge) { b.transcript = t }
}

// WithSpeakDuration overrides the default mouth animation duration
// used for replies that carry no explicit duration.
func WithSpeakDuration(d time.Duration) Option {
	return func(b *Bridge) { b.speakFor = d }
}

// New wires the bridge to the client's event bus.
func New(conn Conn, speaker Speaker, opts ...Option) *Bridge {
	b := &Bridge{
		conn:     conn,
		speaker:  speaker,
		speakFor: 2000 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.subs = append(b.subs,
		conn.Subscribe(client.EventTextReceived, b.onText),
		conn.Subscribe(client.EventAudioReceived, b.onAudio),
		conn.Subscribe(client.EventEmotionChanged, b.onEmotion),
	)
	return b
}

func (b *Bridge) onText(ev client.Event) {
	b.speaker.Speak(b.speakFor)
	b.record("assistant", ev.Text)
}

func (b *Bridge) onAudio(ev client.Event) {
	d := ev.Duration
	if d <= 0 {
		d = b.speakFor
	}
	b.speaker.Speak(d)
}

func (b *Bridge) onEmotion(ev client.Event) {
	if silentEmotions[ev.Emotion] {
		b.speaker.Speak(0)
	}
}

// Send forwards a user message to the agent. The reply may be nil
// (agent absent); the caller treats that as normal.
func (b *Bridge) Send(ctx context.Context, text string) *models.ChatResponse {
	b.record("user", text)
	return b.conn.SendMessage(ctx, text)
}

func (b *Bridge) record(role, content string) {
	if b.transcript == nil || content == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := b.transcript.Record(ctx, role, content); err != nil {
			log.Printf("bridge: failed to record %s turn: %v", role, err)
		}
	}()
}

// Close releases all event subscriptions.
func (b *Bridge) Close() {
	for _, s := range b.subs {
		b.conn.Unsubscribe(s)
	}
	b.subs = nil
}
