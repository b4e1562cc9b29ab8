package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

// cleanupPrefix removes every key written under prefix.
func cleanupPrefix(t *testing.T, client *redis.Client, prefix string) {
	ctx := context.Background()
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
	assert.NoError(t, iter.Err())
}

func TestRedisCatalog(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	prefix := "test-" + uuid.NewString()[:8] + ":"
	defer cleanupPrefix(t, client, prefix)

	runBackendSuite(t, NewRedisCatalog(client, prefix))
}

func TestRedisCatalogKeyLayout(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	prefix := "test-" + uuid.NewString()[:8] + ":"
	defer cleanupPrefix(t, client, prefix)

	c := NewRedisCatalog(client, prefix)
	ids := newTestIDs()
	seedStoresAndItems(t, c, ids)

	_, err := c.ReportPrice(ctx, priceAt(ids, "milk", "a", 120))
	require.NoError(t, err)

	n, err := client.LLen(ctx, prefix+"prices:"+ids.id("milk")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = client.LLen(ctx, prefix+"store_prices:"+ids.id("a")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := client.HExists(ctx, prefix+"stores", ids.id("b")).Result()
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisCatalogDefaultPrefix(t *testing.T) {
	c := NewRedisCatalog(nil, "")
	assert.Equal(t, "recommender:stores", c.key("stores"))
	assert.Equal(t, "recommender:prices:milk", c.key("prices", "milk"))
}
