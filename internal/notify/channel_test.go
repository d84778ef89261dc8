package notify

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelRetriesOnFixedDelayWhenUnreachable(t *testing.T) {
	// Nothing listens on this port, so every subscribe attempt fails.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	channel := OpenChannel(client, "notify:user:", 100, 10*time.Millisecond, nil)

	require.Eventually(t, func() bool {
		return channel.Status() == StatusError || channel.Status() == StatusConnecting
	}, time.Second, 5*time.Millisecond)

	channel.Close()
	assert.Equal(t, StatusDisconnected, channel.Status())

	_, open := <-channel.Events()
	assert.False(t, open)
}

func TestOpenChannelDefaultsRetryDelay(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	channel := OpenChannel(client, "notify:user:", 100, 0, nil)
	defer channel.Close()

	assert.Equal(t, DefaultRetryDelay, channel.retryDelay)
}
