// Package seed provides helpers to create test and demo data. These helpers
// are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"ember/internal/models"
	"ember/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password assigned to every seeded user.
const DefaultPassword = "SeededPass123!"

// Seeder populates the stores with demo data. It goes through the repository
// contracts, so it works against both the memory and the database backend.
type Seeder struct {
	posts repository.PostRepository
	likes repository.LikeRepository
	users repository.UserRepository
	rng   *rand.Rand
}

// NewSeeder creates a seeder bound to the given stores.
func NewSeeder(posts repository.PostRepository, likes repository.LikeRepository, users repository.UserRepository) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		posts: posts,
		likes: likes,
		users: users,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedUsers creates n users with unique usernames and emails. All share
// DefaultPassword so seeded accounts are usable from the login endpoint.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Username: fmt.Sprintf("%s_%d", gofakeit.Username(), i),
			Email:    fmt.Sprintf("seed%d.%s", i, gofakeit.Email()),
			Password: string(hash),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedPosts creates n posts spread across the given authors. Creation times
// reach up to two days into the past, so a realistic share of the seeded
// posts is already expired.
func (s *Seeder) SeedPosts(ctx context.Context, authors []*models.User, n int) ([]*models.Post, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("no authors to seed posts for")
	}

	posts := make([]*models.Post, 0, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		author := authors[s.rng.Intn(len(authors))]
		createdAt := now.Add(-time.Duration(s.rng.Intn(48)) * time.Hour)
		ttl := time.Duration(1+s.rng.Intn(36)) * time.Hour

		post := &models.Post{
			AuthorID:  author.ID,
			Content:   gofakeit.Sentence(8 + s.rng.Intn(12)),
			CreatedAt: createdAt,
			ExpiresAt: createdAt.Add(ttl),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post %d: %w", i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedLikes toggles likes from random users onto random posts. Toggling
// through the ledger keeps the denormalized counters honest.
func (s *Seeder) SeedLikes(ctx context.Context, users []*models.User, posts []*models.Post, n int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		post := posts[s.rng.Intn(len(posts))]
		user := users[s.rng.Intn(len(users))]
		if _, err := s.likes.Toggle(ctx, post.ID, user.ID); err != nil {
			return fmt.Errorf("toggle like %d: %w", i, err)
		}
	}
	return nil
}

// ClearAll truncates every seeded table. Database backend only.
func ClearAll(db *gorm.DB) error {
	for _, model := range []any{&models.Like{}, &models.Post{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
