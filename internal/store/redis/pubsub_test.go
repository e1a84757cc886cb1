package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/gosuda/menuboard/internal/store/redis"
)

func TestMenuChangesChannel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "menu:changes", redisstore.MenuChangesChannel)
}

func TestNew_UnreachableServer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ps, err := redisstore.New(ctx, "127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.Nil(t, ps)
	assert.Contains(t, err.Error(), "redis.New: ping")
}
