package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/tabletop-agents/pkg/session"
)

const (
	sessionKeyPrefix    = "session:"
	transcriptKeyPrefix = "transcript:"
)

// RedisStorage implements Storage on Redis. Sessions are JSON values,
// transcripts are lists appended in dispatch order.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}
		r.logger.Info("Redis connection established")
		return nil
	}
	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveSession(ctx context.Context, state session.SaveState) error {
	if state.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+state.SessionID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, sessionID string) (*session.SaveState, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var state session.SaveState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &state, nil
}

func (r *RedisStorage) ListSessions(ctx context.Context) ([]string, error) {
	keys, err := r.client.Keys(ctx, sessionKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, sessionKeyPrefix))
	}
	return ids, nil
}

func (r *RedisStorage) AppendTranscript(ctx context.Context, sessionID string, e session.TranscriptEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}
	if err := r.client.RPush(ctx, transcriptKeyPrefix+sessionID, data).Err(); err != nil {
		return fmt.Errorf("failed to append transcript: %w", err)
	}
	return nil
}

func (r *RedisStorage) Transcript(ctx context.Context, sessionID string) ([]session.TranscriptEntry, error) {
	raw, err := r.client.LRange(ctx, transcriptKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	entries := make([]session.TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var e session.TranscriptEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			r.logger.Warn("skipping malformed transcript entry", "session_id", sessionID, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
