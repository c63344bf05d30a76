// Package transcript keeps an optional Redis-backed record of the
// conversation: a global stream of turns plus a capped per-session
// history with a TTL.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seven0070/yumiai/models"
)

const (
	streamKey     = "avatar:transcript"
	sessionPrefix = "transcript:"
	sessionTTL    = 24 * time.Hour
	maxTurns      = 50
)

// Recorder appends conversation turns to Redis. The animation and
// connection core never depend on it succeeding.
type Recorder struct {
	rdb       *redis.Client
	sessionID string
}

// New creates a recorder for one session.
func New(rdb *redis.Client, sessionID string) *Recorder {
	return &Recorder{rdb: rdb, sessionID: sessionID}
}

// Record appends one turn to the transcript stream and to the session
// history.
func (r *Recorder) Record(ctx context.Context, role, content string) error {
	if err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"session_id": r.sessionID,
			"role":       role,
			"content":    content,
		},
	}).Err(); err != nil {
		return fmt.Errorf("failed to append to transcript stream: %w", err)
	}

	history, err := r.History(ctx)
	if err != nil {
		return err
	}
	history = append(history, models.ConversationTurn{Role: role, Content: content})
	return r.saveHistory(ctx, history)
}

// History loads the session's recorded turns. A missing key is an
// empty history, not an error.
func (r *Recorder) History(ctx context.Context) ([]models.ConversationTurn, error) {
	key := sessionPrefix + r.sessionID
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return []models.ConversationTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	var history []models.ConversationTurn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session history: %w", err)
	}
	return history, nil
}

func (r *Recorder) saveHistory(ctx context.Context, history []models.ConversationTurn) error {
	// Keep only the last maxTurns.
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal session history: %w", err)
	}

	key := sessionPrefix + r.sessionID
	if err := r.rdb.Set(ctx, key, data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session history: %w", err)
	}
	return nil
}
