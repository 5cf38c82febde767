package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]int64{"record_id": 40})
	require.NoError(t, q.Publish(ctx, Message{Type: "attendance.marked", Body: body}))

	select {
	case got := <-msgs:
		assert.Equal(t, "attendance.marked", got.Type)
		assert.JSONEq(t, `{"record_id":40}`, string(got.Body))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryPublishHonorsCancellation(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Publish(ctx, Message{Type: "attendance.marked"})
	assert.ErrorIs(t, err, context.Canceled)
}
