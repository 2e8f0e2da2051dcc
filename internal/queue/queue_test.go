package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, Message{Type: TypeSubmission, Body: []byte(`{"record_id":"r1"}`)}))
	require.NoError(t, q.Publish(ctx, Message{Type: TypePost, Body: []byte(`{"post_id":"p1"}`)}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	first := <-msgs
	assert.Equal(t, TypeSubmission, first.Type)
	assert.Equal(t, `{"record_id":"r1"}`, string(first.Body))

	second := <-msgs
	assert.Equal(t, TypePost, second.Type)
}

func TestInMemoryPublishCancelled(t *testing.T) {
	q := NewInMemory(0) // unbuffered, nothing consuming
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := q.Publish(ctx, Message{Type: TypeSubmission})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeSubmission, Body: []byte(`{"a":"b|c"}`)}
	got, err := deserialize(serialize(msg))
	require.NoError(t, err)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, string(msg.Body), string(got.Body), "body may contain the separator")
}

func TestDeserializeWithoutType(t *testing.T) {
	got, err := deserialize("no separator here")
	require.NoError(t, err)
	assert.Empty(t, got.Type)
	assert.Equal(t, "no separator here", string(got.Body))
}
