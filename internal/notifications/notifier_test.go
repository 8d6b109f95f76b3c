package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ember/internal/models"
)

func TestNotifier_NilClientIsSilent(t *testing.T) {
	n := NewNotifier(nil)
	ctx := context.Background()

	assert.NoError(t, n.PublishBroadcast(ctx, "payload"))
	assert.NoError(t, n.PublishUser(ctx, "user-1", "payload"))
	assert.NoError(t, n.PublishPostEvent(ctx, EventPostCreated, &models.Post{ID: "p1"}, "user-1"))
	assert.NoError(t, n.StartPatternSubscriber(ctx, func(string, string) {}))
}

func TestNotifier_PublishPostEventRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_, payload string) {
		received <- payload
	}))

	// Give the subscriber goroutine a moment to register.
	time.Sleep(50 * time.Millisecond)

	post := &models.Post{ID: "p1", AuthorID: "alice", Content: "hello"}
	require.NoError(t, n.PublishPostEvent(ctx, EventReactionUpdated, post, "bob"))

	select {
	case payload := <-received:
		var event Event
		require.NoError(t, json.Unmarshal([]byte(payload), &event))
		assert.Equal(t, EventReactionUpdated, event.Type)
		assert.Equal(t, "p1", event.Post.ID)
		assert.Equal(t, "bob", event.ActorID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
