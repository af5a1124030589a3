package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClientIsEmptyCache(t *testing.T) {
	ctx := context.Background()
	c := New("", "", 0)
	assert.Nil(t, c)

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	c.Delete(ctx, "k")
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestUnreachableRedisIsEmptyCache(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Nothing listens on port 1.
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
}
