package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hcollier/todo-api/internal/models"
)

// TodoCache keeps each user's todo list in Redis so repeated GET /api/todos
// calls skip the database. A nil *TodoCache is a no-op, so callers never need
// to check whether caching is enabled.
type TodoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr and verifies the connection with a ping.
func New(addr string, ttl time.Duration) (*TodoCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &TodoCache{client: client, ttl: ttl}, nil
}

func key(userID int) string {
	return "todos:" + strconv.Itoa(userID)
}

// Get returns the cached list for userID, or ok=false on miss or any Redis
// or decode failure. Failures are treated as misses; the store is the source
// of truth.
func (c *TodoCache) Get(ctx context.Context, userID int) ([]models.Todo, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var todos []models.Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		return nil, false
	}
	return todos, true
}

// Set stores the list for userID with the configured TTL.
func (c *TodoCache) Set(ctx context.Context, userID int, todos []models.Todo) {
	if c == nil {
		return
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(userID), data, c.ttl)
}

// Invalidate drops the cached list for userID. Call after any todo mutation.
func (c *TodoCache) Invalidate(ctx context.Context, userID int) {
	if c == nil {
		return
	}
	c.client.Del(ctx, key(userID))
}

// Close releases the underlying Redis connection.
func (c *TodoCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
