// Package service implements the application's business rules on top of the
// repository contracts.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ember/internal/middleware"
	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultTTLHours is the fallback lifetime applied when neither the request
// nor the configuration supplies a positive TTL.
const DefaultTTLHours = 24

// PostService orchestrates the ephemeral-content lifecycle: TTL resolution,
// expiration-aware reads and the delegated like toggle. It never touches
// storage directly; all mutation goes through the store contracts.
type PostService struct {
	posts      repository.PostRepository
	likes      repository.LikeRepository
	clock      models.Clock
	defaultTTL models.TTL
}

// NewPostService creates the lifecycle service. A nil clock falls back to the
// system clock; a non-positive default TTL falls back to 24 hours.
func NewPostService(posts repository.PostRepository, likes repository.LikeRepository, defaultTTL models.TTL, clock models.Clock) *PostService {
	if clock == nil {
		clock = models.SystemClock{}
	}
	if !defaultTTL.Positive() {
		defaultTTL = models.TTL{Hours: DefaultTTLHours}
	}
	return &PostService{
		posts:      posts,
		likes:      likes,
		clock:      clock,
		defaultTTL: defaultTTL,
	}
}

// CreatePostInput carries the fields for CreatePost. A zero CreatedAt means
// "now"; a nil or non-positive TTL means the configured default.
type CreatePostInput struct {
	AuthorID  string
	Content   string
	TTL       *models.TTL
	CreatedAt time.Time
}

// ListPostsInput describes a filtered, paginated listing.
type ListPostsInput struct {
	AuthorID       string
	CreatedBefore  *time.Time
	CreatedAfter   *time.Time
	IncludeExpired bool
	Limit          int
	Cursor         string
	Order          string
}

// CreatePost resolves the expiration instant and persists a new post.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if in.AuthorID == "" {
		return nil, models.NewValidationError("Author is required")
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}

	post := &models.Post{
		AuthorID:  in.AuthorID,
		Content:   in.Content,
		CreatedAt: createdAt,
		ExpiresAt: s.resolveExpiration(createdAt, in.TTL, createdAt),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// GetPost returns the post, treating an expired one as absent unless
// includeExpired is set. Expiration is a view-level filter: the record stays
// in storage either way.
func (s *PostService) GetPost(ctx context.Context, id string, includeExpired bool) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if !includeExpired && post.Expired(s.clock.Now()) {
		middleware.ExpiredReads.Inc()
		return nil, models.NewNotFoundError("post", id)
	}
	return post, nil
}

// ListPosts returns matching posts. The expiration constraint is injected
// into the store query rather than filtered afterwards, so cursors stay
// consistent with the visibility rule.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	q := repository.PostQuery{
		AuthorID:      in.AuthorID,
		CreatedBefore: in.CreatedBefore,
		CreatedAfter:  in.CreatedAfter,
		Limit:         in.Limit,
		Cursor:        in.Cursor,
		Order:         in.Order,
	}
	if !in.IncludeExpired {
		now := s.clock.Now()
		q.ExpiresAfter = &now
	}
	posts, err := s.posts.FindMany(ctx, q)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// RefreshExpiration extends an active post's lifetime from "now". An expired
// post cannot be resurrected: the attempt is logged and reported as absent,
// and the stored record is left untouched.
func (s *PostService) RefreshExpiration(ctx context.Context, id string, ttl *models.TTL) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.RefreshExpiration")
	defer span.End()
	span.AddAttributes(attribute.String("post.id", id))

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		err = s.translate(err, id)
		span.SetError(err)
		return nil, err
	}

	now := s.clock.Now()
	if post.Expired(now) {
		middleware.ExpiredReads.Inc()
		middleware.Logger.WarnContext(ctx, "refusing to refresh expired post",
			slog.String("post_id", id),
			slog.Time("expired_at", post.ExpiresAt),
		)
		return nil, models.NewNotFoundError("post", id)
	}

	expiresAt := s.resolveExpiration(now, ttl, now)
	updated, err := s.posts.Update(ctx, id, repository.PostUpdate{ExpiresAt: &expiresAt})
	if err != nil {
		err = s.translate(err, id)
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.String("post.expires_at", updated.ExpiresAt.Format(time.RFC3339Nano)))
	return updated, nil
}

// ToggleLike flips the like state of (postID, userID) through the ledger's
// atomic toggle and returns the post as it stands after the mutation.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	if userID == "" {
		return nil, models.NewValidationError("User is required")
	}

	span, ctx := observability.NewSpan(ctx, "PostService.ToggleLike")
	defer span.End()
	span.AddAttributes(
		attribute.String("post.id", postID),
		attribute.String("user.id", userID),
	)

	post, err := s.likes.Toggle(ctx, postID, userID)
	if err != nil {
		err = s.translate(err, postID)
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("post.like_count", post.LikeCount))
	return post, nil
}

// resolveExpiration turns a TTL into an absolute instant. Non-positive or
// absent TTLs degrade to the configured default, and the result is clamped to
// land strictly after reference so no post is ever born expired.
func (s *PostService) resolveExpiration(base time.Time, ttl *models.TTL, reference time.Time) time.Time {
	d := s.defaultTTL.Duration()
	if ttl.Positive() {
		d = ttl.Duration()
	}
	candidate := base.Add(d)
	if !candidate.After(reference) {
		candidate = reference.Add(time.Millisecond)
	}
	return candidate
}

func (s *PostService) translate(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("post", id)
	}
	return models.NewInternalError(err)
}
