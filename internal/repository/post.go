// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"ember/internal/models"
)

// ErrNotFound signals that no record with the requested identity exists.
// Repositories return it instead of failing; the service layer decides
// whether absence is an error.
var ErrNotFound = errors.New("record not found")

// Sort orders for PostQuery.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultPageSize bounds FindMany results when the caller does not.
const DefaultPageSize = 20

// PostQuery describes a filtered, paginated listing of posts.
// A nil ExpiresAfter means expired posts are eligible; the lifecycle service
// supplies the instant so that one consistent "now" is used per call.
type PostQuery struct {
	AuthorID      string
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	ExpiresAfter  *time.Time
	Limit         int
	Cursor        string
	Order         string // OrderAsc or OrderDesc; defaults to OrderDesc
}

// PostUpdate is a partial update; nil fields are left untouched.
type PostUpdate struct {
	Content   *string
	ExpiresAt *time.Time
	LikeCount *int
}

// PostRepository is the content store contract.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	FindMany(ctx context.Context, q PostQuery) ([]*models.Post, error)
	// Update applies the non-nil fields and returns the post-update record.
	// It never creates a record; a missing id yields ErrNotFound.
	Update(ctx context.Context, id string, upd PostUpdate) (*models.Post, error)
}

// LikeRepository is the like ledger contract. Find, Create and Delete are
// storage-only; Toggle is the one compound operation and owns the
// check-then-mutate atomicity for the post's like counter.
type LikeRepository interface {
	Find(ctx context.Context, postID, userID string) (*models.Like, error)
	Create(ctx context.Context, postID, userID string) (*models.Like, error)
	Delete(ctx context.Context, id string) error
	// Toggle likes the post for the user, or unlikes it when an active
	// relation exists, adjusting the post's like counter in the same
	// indivisible step. It returns the post as it stands immediately after
	// the mutation, or ErrNotFound when the post does not exist.
	Toggle(ctx context.Context, postID, userID string) (*models.Post, error)
}

// UserRepository stores authenticated principals for the auth boundary.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
