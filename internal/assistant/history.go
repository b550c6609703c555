package assistant

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/localloop/localloop-backend/pkg/redis"
)

// Turn is one utterance in a chat history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryStore keeps a bounded per-user conversation history.
type HistoryStore interface {
	List(ctx context.Context, userID string) ([]Turn, error)
	Append(ctx context.Context, userID string, turns ...Turn) error
}

// RedisHistory stores each user's history in a redis list, trimmed to the
// most recent maxTurns entries after every append.
type RedisHistory struct {
	client   *redis.Client
	maxTurns int
}

func NewRedisHistory(client *redis.Client, maxTurns int) *RedisHistory {
	return &RedisHistory{client: client, maxTurns: maxTurns}
}

func (h *RedisHistory) List(ctx context.Context, userID string) ([]Turn, error) {
	entries, err := h.client.LRange(ctx, h.client.HistoryKey(userID), 0, -1)
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(entries))
	for _, entry := range entries {
		var turn Turn
		if json.Unmarshal([]byte(entry), &turn) != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (h *RedisHistory) Append(ctx context.Context, userID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := h.client.HistoryKey(userID)

	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		encoded, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		values = append(values, string(encoded))
	}
	if err := h.client.RPush(ctx, key, values...); err != nil {
		return err
	}
	if h.maxTurns > 0 {
		return h.client.LTrim(ctx, key, int64(-h.maxTurns), -1)
	}
	return nil
}

// MemoryHistory is the in-process fallback used when redis is not
// configured. Histories do not survive a restart.
type MemoryHistory struct {
	mu       sync.Mutex
	maxTurns int
	turns    map[string][]Turn
}

func NewMemoryHistory(maxTurns int) *MemoryHistory {
	return &MemoryHistory{maxTurns: maxTurns, turns: make(map[string][]Turn)}
}

func (h *MemoryHistory) List(_ context.Context, userID string) ([]Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Turn(nil), h.turns[userID]...), nil
}

func (h *MemoryHistory) Append(_ context.Context, userID string, turns ...Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	combined := append(h.turns[userID], turns...)
	if h.maxTurns > 0 && len(combined) > h.maxTurns {
		combined = combined[len(combined)-h.maxTurns:]
	}
	h.turns[userID] = combined
	return nil
}
