package rewardqueue

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// Command behavior against a live Redis server is exercised by the
// pack's own redisdb tests only at the client-construction level (see
// TheFozid-go-llama's client_test.go); these mirror that scope and
// check the key-formatting helpers rather than stand up a server.
func TestRedisQueueKeysAreNamespacedByPrefix(t *testing.T) {
	q := NewRedisQueue(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), "amas")
	assert.Equal(t, "amas:reward:due", q.zsetKey())
	assert.Equal(t, "amas:reward:row:k1", q.rowKey("k1"))
}

func TestNewRedisQueueDoesNotDial(t *testing.T) {
	// Constructing the client/queue must not itself require a reachable
	// server -- go-redis connects lazily on first command.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	q := NewRedisQueue(client, "amas")
	assert.NotNil(t, q)
}
