package database

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "mastery:status:1:2", "developing", 0).Err())
	server.CheckGet(t, "mastery:status:1:2", "developing")
}

func TestConnectRedisRejectsBadURLs(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "http://not-redis")
	require.ErrorContains(t, err, "failed to parse redis url")
}

func TestConnectRedisFailsWhenUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = ConnectRedis(context.Background(), "redis://"+addr)
	require.ErrorContains(t, err, "unable to connect to redis")
}
