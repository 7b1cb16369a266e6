package bus

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardCopiesPayloadsUntilSourceCloses(t *testing.T) {
	msgs := make(chan *redis.Message, 4)
	out := make(chan []byte, 4)

	msgs <- &redis.Message{Channel: InboundChannel, Payload: "one"}
	msgs <- &redis.Message{Channel: InboundChannel, Payload: "two"}
	close(msgs)

	Forward(context.Background(), msgs, out)

	assert.Equal(t, []byte("one"), <-out)
	assert.Equal(t, []byte("two"), <-out)

	_, open := <-out
	assert.False(t, open, "out must be closed after the source closes")
}

func TestForwardUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan *redis.Message, 4)
	out := make(chan []byte, 1)

	// Fill out so the next send would block, then keep the source fed.
	msgs <- &redis.Message{Channel: InboundChannel, Payload: "buffered"}
	msgs <- &redis.Message{Channel: InboundChannel, Payload: "stuck"}

	done := make(chan struct{})
	go func() {
		Forward(ctx, msgs, out)
		close(done)
	}()

	// With nobody draining out, Forward is parked on the second send.
	// Cancellation must release it and close out.
	require.Eventually(t, func() bool { return len(out) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after cancellation")
	}

	require.Equal(t, []byte("buffered"), <-out)
	_, open := <-out
	assert.False(t, open, "out must be closed after cancellation")
}
