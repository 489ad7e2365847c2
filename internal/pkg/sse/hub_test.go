package sse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishByTopic(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	recorded, stopRecorded := hub.Subscribe("attendance.recorded")
	defer stopRecorded()
	all, stopAll := hub.Subscribe("")
	defer stopAll()
	assert.Equal(t, 2, hub.TotalSubscribers())

	require.NoError(t, hub.Publish(ctx, "attendance.recorded", map[string]string{"user_id": "emp-1"}))
	require.NoError(t, hub.Publish(ctx, "attendance.daily", map[string]string{"punch_date": "2024-03-01"}))

	ev := <-recorded
	assert.Equal(t, "attendance.recorded", ev.Topic)
	assert.NotEmpty(t, ev.ID)
	assert.Len(t, recorded, 0)

	assert.Equal(t, "attendance.recorded", (<-all).Topic)
	assert.Equal(t, "attendance.daily", (<-all).Topic)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("")
	defer cleanup()

	for i := 0; i < cap(ch)+5; i++ {
		require.NoError(t, hub.Publish(context.Background(), "attendance.recorded", i))
	}
	assert.Len(t, ch, cap(ch))
}

func TestHub_CloseEndsStreams(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("attendance.recorded")

	require.NoError(t, hub.Close())
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.TotalSubscribers())

	assert.NotPanics(t, cleanup)
}
