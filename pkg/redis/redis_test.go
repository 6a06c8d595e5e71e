package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/lawgraph-core/server/pkg/redis"
)

func TestConfigNew_ConnectsAndPings(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := pkgredis.Config{URL: "redis://" + mr.Addr(), ReadTimeout: 3, WriteTimeout: 3, DialTimeout: 5}

	client, err := cfg.New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConfigNew_RejectsMalformedURL(t *testing.T) {
	cfg := pkgredis.Config{URL: "not-a-redis-url"}

	client, err := cfg.New(context.Background())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestConfigNew_FailsWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := pkgredis.Config{URL: "redis://" + addr, DialTimeout: 1}

	client, err := cfg.New(context.Background())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "ping redis")
}
