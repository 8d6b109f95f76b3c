package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*PostService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	posts := repository.NewMemoryPostStore()
	likes := repository.NewMemoryLikeLedger(posts)
	svc := NewPostService(posts, likes, models.TTL{}, clock)
	return svc, clock
}

func TestCreatePost_ExpiresAfterCreation(t *testing.T) {
	svc, clock := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "hello",
		TTL:      &models.TTL{Minutes: 30},
	})
	require.NoError(t, err)

	assert.Equal(t, clock.Now(), post.CreatedAt)
	assert.True(t, post.ExpiresAt.After(post.CreatedAt))
	assert.Equal(t, clock.Now().Add(30*time.Minute), post.ExpiresAt)
	assert.Equal(t, 0, post.LikeCount)
	assert.NotEmpty(t, post.ID)
}

func TestCreatePost_DefaultTTLFallback(t *testing.T) {
	svc, clock := newTestService(t)

	cases := []struct {
		name string
		ttl  *models.TTL
	}{
		{"nil ttl", nil},
		{"zero ttl", &models.TTL{}},
		{"negative ttl", &models.TTL{Hours: -5}},
		{"non-finite components", &models.TTL{Hours: nan(), Minutes: inf()}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post, err := svc.CreatePost(context.Background(), CreatePostInput{
				AuthorID: "alice",
				Content:  "hello",
				TTL:      tc.ttl,
			})
			require.NoError(t, err)
			assert.Equal(t, clock.Now().Add(DefaultTTLHours*time.Hour), post.ExpiresAt)
		})
	}
}

func TestCreatePost_FractionalTTLComponents(t *testing.T) {
	svc, clock := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "hello",
		TTL:      &models.TTL{Hours: 1.5, Seconds: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(90*time.Minute+500*time.Millisecond), post.ExpiresAt)
}

func TestCreatePost_RejectsBlankContent(t *testing.T) {
	svc, _ := newTestService(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: "alice",
			Content:  content,
		})
		assert.True(t, models.HasCode(err, models.CodeValidation), "content %q should be rejected", content)
	}
}

func TestGetPost_ExpirationGuard(t *testing.T) {
	svc, clock := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "short lived",
		TTL:      &models.TTL{Minutes: 10},
	})
	require.NoError(t, err)

	got, err := svc.GetPost(context.Background(), post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	clock.Advance(10 * time.Minute)

	// Exactly at the expiration instant the post is already invisible.
	_, err = svc.GetPost(context.Background(), post.ID, false)
	assert.True(t, models.IsNotFound(err))

	// The record is retained in storage and reachable with includeExpired.
	got, err = svc.GetPost(context.Background(), post.ID, true)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestGetPost_UnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetPost(context.Background(), "no-such-post", false)
	assert.True(t, models.IsNotFound(err))
}

func TestListPosts_FiltersExpiredByDefault(t *testing.T) {
	svc, clock := newTestService(t)

	mk := func(content string, ttl models.TTL) *models.Post {
		post, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: "alice",
			Content:  content,
			TTL:      &ttl,
		})
		require.NoError(t, err)
		clock.Advance(time.Second)
		return post
	}

	mk("dies first", models.TTL{Minutes: 1})
	keeper := mk("stays", models.TTL{Hours: 2})

	clock.Advance(time.Minute)

	visible, err := svc.ListPosts(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, keeper.ID, visible[0].ID)

	all, err := svc.ListPosts(context.Background(), ListPostsInput{IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListPosts_OrderAndFilters(t *testing.T) {
	svc, clock := newTestService(t)

	var ids []string
	for i, author := range []string{"alice", "bob", "alice"} {
		post, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: author,
			Content:  "post",
			TTL:      &models.TTL{Hours: 1},
		})
		require.NoError(t, err)
		ids = append(ids, post.ID)
		_ = i
		clock.Advance(time.Minute)
	}

	// Default order is newest first.
	posts, err := svc.ListPosts(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, ids[2], posts[0].ID)
	assert.Equal(t, ids[0], posts[2].ID)

	// Ascending flips it.
	posts, err = svc.ListPosts(context.Background(), ListPostsInput{Order: repository.OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, ids[0], posts[0].ID)

	// Author filter.
	posts, err = svc.ListPosts(context.Background(), ListPostsInput{AuthorID: "bob"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, ids[1], posts[0].ID)
}

func TestListPosts_CursorPagination(t *testing.T) {
	svc, clock := newTestService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: "alice",
			Content:  "post",
			TTL:      &models.TTL{Hours: 1},
		})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	first, err := svc.ListPosts(context.Background(), ListPostsInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	cursor := repository.EncodeCursor(first[len(first)-1])
	second, err := svc.ListPosts(context.Background(), ListPostsInput{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 2)

	// Pages do not overlap.
	seen := map[string]bool{}
	for _, p := range append(first, second...) {
		assert.False(t, seen[p.ID], "post %s returned twice", p.ID)
		seen[p.ID] = true
	}
}

func TestRefreshExpiration_ExtendsFromNow(t *testing.T) {
	svc, clock := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "refresh me",
		TTL:      &models.TTL{Minutes: 5},
	})
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)

	updated, err := svc.RefreshExpiration(context.Background(), post.ID, &models.TTL{Hours: 1})
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), updated.ExpiresAt)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
}

func TestRefreshExpiration_DefaultTTL(t *testing.T) {
	svc, clock := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "refresh me",
		TTL:      &models.TTL{Minutes: 5},
	})
	require.NoError(t, err)

	updated, err := svc.RefreshExpiration(context.Background(), post.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(DefaultTTLHours*time.Hour), updated.ExpiresAt)
}

func TestRefreshExpiration_ExpiredPostStaysDead(t *testing.T) {
	svc, clock := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "gone soon",
		TTL:      &models.TTL{Minutes: 1},
	})
	require.NoError(t, err)
	originalExpiry := post.ExpiresAt

	clock.Advance(2 * time.Minute)

	_, err = svc.RefreshExpiration(context.Background(), post.ID, &models.TTL{Hours: 1})
	assert.True(t, models.IsNotFound(err))

	// No mutation happened on the failed refresh.
	kept, err := svc.GetPost(context.Background(), post.ID, true)
	require.NoError(t, err)
	assert.Equal(t, originalExpiry, kept.ExpiresAt)
}

func TestToggleLike_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "likeable",
		TTL:      &models.TTL{Hours: 1},
	})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(context.Background(), post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	unliked, err := svc.ToggleLike(context.Background(), post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount)

	// A second user is independent of the first.
	again, err := svc.ToggleLike(context.Background(), post.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, again.LikeCount)
}

func TestToggleLike_UnknownPost(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ToggleLike(context.Background(), "no-such-post", "bob")
	assert.True(t, models.IsNotFound(err))
}

func TestToggleLike_ConcurrentDistinctUsers(t *testing.T) {
	svc, _ := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "popular",
		TTL:      &models.TTL{Hours: 1},
	})
	require.NoError(t, err)

	const users = 64
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ToggleLike(context.Background(), post.ID, userName(i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := svc.GetPost(context.Background(), post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, users, final.LikeCount)
}

func TestToggleLike_ConcurrentSamePair(t *testing.T) {
	svc, _ := newTestService(t)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "flappy",
		TTL:      &models.TTL{Hours: 1},
	})
	require.NoError(t, err)

	const toggles = 50
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleLike(context.Background(), post.ID, "bob")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// An even number of toggles of the same pair nets out to zero,
	// regardless of interleaving.
	final, err := svc.GetPost(context.Background(), post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, final.LikeCount)
}

func TestLifecycleOperationsEmitSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })

	svc, _ := newTestService(t)
	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: "alice",
		Content:  "traced",
		TTL:      &models.TTL{Hours: 1},
	})
	require.NoError(t, err)

	_, err = svc.ToggleLike(context.Background(), post.ID, "bob")
	require.NoError(t, err)
	_, err = svc.RefreshExpiration(context.Background(), post.ID, &models.TTL{Hours: 2})
	require.NoError(t, err)

	names := make([]string, 0, 2)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "PostService.ToggleLike")
	assert.Contains(t, names, "PostService.RefreshExpiration")
}

func userName(i int) string {
	return "user-" + strconv.Itoa(i)
}

func nan() float64 {
	f := 0.0
	return f / f
}

func inf() float64 {
	f := 1.0
	return f / 0.0
}
