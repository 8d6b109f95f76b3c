package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ember/internal/models"

	"github.com/google/uuid"
)

// MemoryPostStore is the default in-memory content store: a guarded map from
// id to record. Records are copied on the way in and out so callers can never
// mutate stored state behind the lock.
type MemoryPostStore struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
}

// NewMemoryPostStore creates an empty in-memory content store.
func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{posts: make(map[string]*models.Post)}
}

// Create assigns a fresh id when missing, zeroes the like counter and persists.
func (s *MemoryPostStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.LikeCount = 0
	s.posts[post.ID] = clonePost(post)
	return nil
}

// GetByID returns the post or ErrNotFound.
func (s *MemoryPostStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(post), nil
}

// FindMany returns posts matching q, ordered by creation time, paginated by
// the opaque cursor. Expiration filtering happens here only when the caller
// supplies ExpiresAfter; the store itself never consults a clock.
func (s *MemoryPostStore) FindMany(_ context.Context, q PostQuery) ([]*models.Post, error) {
	s.mu.RLock()
	matched := make([]*models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if matchesQuery(post, q) {
			matched = append(matched, clonePost(post))
		}
	}
	s.mu.RUnlock()

	order := normalizeOrder(q.Order)
	sort.Slice(matched, func(i, j int) bool {
		return lessInOrder(matched[i], matched[j], order)
	})

	if cursorTime, cursorID, ok := decodeCursor(q.Cursor); ok {
		after := matched[:0]
		for _, post := range matched {
			if afterCursor(post, cursorTime, cursorID, order) {
				after = append(after, post)
			}
		}
		matched = after
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Update applies the non-nil fields of upd and returns the stored result.
func (s *MemoryPostStore) Update(_ context.Context, id string, upd PostUpdate) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Content != nil {
		post.Content = *upd.Content
	}
	if upd.ExpiresAt != nil {
		post.ExpiresAt = *upd.ExpiresAt
	}
	if upd.LikeCount != nil {
		post.LikeCount = *upd.LikeCount
		if post.LikeCount < 0 {
			post.LikeCount = 0
		}
	}
	return clonePost(post), nil
}

func matchesQuery(post *models.Post, q PostQuery) bool {
	if q.AuthorID != "" && post.AuthorID != q.AuthorID {
		return false
	}
	if q.CreatedBefore != nil && !post.CreatedAt.Before(*q.CreatedBefore) {
		return false
	}
	if q.CreatedAfter != nil && !post.CreatedAt.After(*q.CreatedAfter) {
		return false
	}
	if q.ExpiresAfter != nil && !post.ExpiresAt.After(*q.ExpiresAfter) {
		return false
	}
	return true
}

func lessInOrder(a, b *models.Post, order string) bool {
	if order == OrderAsc {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func afterCursor(post *models.Post, cursorTime time.Time, cursorID, order string) bool {
	if order == OrderAsc {
		if !post.CreatedAt.Equal(cursorTime) {
			return post.CreatedAt.After(cursorTime)
		}
		return post.ID > cursorID
	}
	if !post.CreatedAt.Equal(cursorTime) {
		return post.CreatedAt.Before(cursorTime)
	}
	return post.ID < cursorID
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	return &cp
}

// MemoryLikeLedger is the default in-memory like ledger. It keeps a secondary
// index on (postID, userID) for O(1) relation lookup and serializes the
// toggle sequence per post, so toggles on different posts never block each
// other.
type MemoryLikeLedger struct {
	posts *MemoryPostStore

	mu     sync.RWMutex
	likes  map[string]*models.Like // by like id
	byPair map[string]string       // pairKey -> like id

	postLocks sync.Map // postID -> *sync.Mutex
}

// NewMemoryLikeLedger creates a ledger bound to the post store whose counters
// it maintains.
func NewMemoryLikeLedger(posts *MemoryPostStore) *MemoryLikeLedger {
	return &MemoryLikeLedger{
		posts:  posts,
		likes:  make(map[string]*models.Like),
		byPair: make(map[string]string),
	}
}

// Find returns the active relation for (postID, userID) or ErrNotFound.
func (l *MemoryLikeLedger) Find(_ context.Context, postID, userID string) (*models.Like, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byPair[pairKey(postID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	like := *l.likes[id]
	return &like, nil
}

// Create unconditionally inserts a relation. Uniqueness of the pair is the
// toggle algorithm's responsibility, not the store's.
func (l *MemoryLikeLedger) Create(_ context.Context, postID, userID string) (*models.Like, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	like := &models.Like{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	l.likes[like.ID] = like
	l.byPair[pairKey(postID, userID)] = like.ID
	out := *like
	return &out, nil
}

// Delete removes the relation with the given id; deleting a missing id is a no-op.
func (l *MemoryLikeLedger) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	like, ok := l.likes[id]
	if !ok {
		return nil
	}
	delete(l.likes, id)
	delete(l.byPair, pairKey(like.PostID, like.UserID))
	return nil
}

// Toggle runs the whole check-then-mutate sequence under a per-post mutex:
// two racing toggles for the same post can never both observe "no relation"
// or clobber each other's counter write.
func (l *MemoryLikeLedger) Toggle(ctx context.Context, postID, userID string) (*models.Post, error) {
	unlock := l.lockPost(postID)
	defer unlock()

	post, err := l.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	existing, err := l.Find(ctx, postID, userID)
	switch {
	case err == nil:
		if err := l.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
		count := post.LikeCount - 1
		if count < 0 {
			count = 0
		}
		return l.posts.Update(ctx, postID, PostUpdate{LikeCount: &count})
	case errors.Is(err, ErrNotFound):
		if _, err := l.Create(ctx, postID, userID); err != nil {
			return nil, err
		}
		count := post.LikeCount + 1
		return l.posts.Update(ctx, postID, PostUpdate{LikeCount: &count})
	default:
		return nil, err
	}
}

func (l *MemoryLikeLedger) lockPost(postID string) func() {
	v, _ := l.postLocks.LoadOrStore(postID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func pairKey(postID, userID string) string {
	return postID + "\x00" + userID
}
