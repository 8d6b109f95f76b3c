package seed

import (
	"context"
	"testing"
	"time"

	"ember/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestSeeder() (*Seeder, repository.PostRepository, repository.UserRepository) {
	posts := repository.NewMemoryPostStore()
	likes := repository.NewMemoryLikeLedger(posts)
	users := repository.NewMemoryUserStore()
	return NewSeeder(posts, likes, users), posts, users
}

func TestSeedUsers(t *testing.T) {
	s, _, users := newTestSeeder()
	ctx := context.Background()

	created, err := s.SeedUsers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, created, 5)

	seen := make(map[string]bool)
	for _, u := range created {
		assert.NotEmpty(t, u.ID)
		assert.False(t, seen[u.Email], "emails must be unique")
		seen[u.Email] = true
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))

		got, err := users.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	}
}

func TestSeedPosts(t *testing.T) {
	s, posts, _ := newTestSeeder()
	ctx := context.Background()

	authors, err := s.SeedUsers(ctx, 3)
	require.NoError(t, err)

	created, err := s.SeedPosts(ctx, authors, 40)
	require.NoError(t, err)
	require.Len(t, created, 40)

	now := time.Now().UTC()
	for _, p := range created {
		assert.NotEmpty(t, p.Content)
		assert.True(t, p.ExpiresAt.After(p.CreatedAt))
		assert.False(t, p.CreatedAt.After(now))

		got, err := posts.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.AuthorID, got.AuthorID)
	}
}

func TestSeedPostsRequiresAuthors(t *testing.T) {
	s, _, _ := newTestSeeder()
	_, err := s.SeedPosts(context.Background(), nil, 10)
	assert.Error(t, err)
}

func TestSeedLikesKeepsCountersConsistent(t *testing.T) {
	s, posts, _ := newTestSeeder()
	ctx := context.Background()

	users, err := s.SeedUsers(ctx, 4)
	require.NoError(t, err)
	created, err := s.SeedPosts(ctx, users, 10)
	require.NoError(t, err)

	require.NoError(t, s.SeedLikes(ctx, users, created, 60))

	for _, p := range created {
		got, err := posts.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.LikeCount, 0)
		assert.LessOrEqual(t, got.LikeCount, len(users))
	}
}
