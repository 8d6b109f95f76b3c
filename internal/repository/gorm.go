package repository

import (
	"context"
	"errors"
	"time"

	"ember/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPostStore is the durable content store. It implements the same contract
// as MemoryPostStore on top of a SQL database.
type GormPostStore struct {
	db *gorm.DB
}

// NewGormPostStore creates a post store bound to db.
func NewGormPostStore(db *gorm.DB) *GormPostStore {
	return &GormPostStore{db: db}
}

func (s *GormPostStore) Create(ctx context.Context, post *models.Post) error {
	post.LikeCount = 0
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *GormPostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *GormPostStore) FindMany(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	db := s.db.WithContext(ctx).Model(&models.Post{})

	if q.AuthorID != "" {
		db = db.Where("author_id = ?", q.AuthorID)
	}
	if q.CreatedBefore != nil {
		db = db.Where("created_at < ?", *q.CreatedBefore)
	}
	if q.CreatedAfter != nil {
		db = db.Where("created_at > ?", *q.CreatedAfter)
	}
	if q.ExpiresAfter != nil {
		db = db.Where("expires_at > ?", *q.ExpiresAfter)
	}

	order := normalizeOrder(q.Order)
	if cursorTime, cursorID, ok := decodeCursor(q.Cursor); ok {
		// Row-value comparison spelled out for portability across drivers.
		if order == OrderAsc {
			db = db.Where("created_at > ? OR (created_at = ? AND id > ?)", cursorTime, cursorTime, cursorID)
		} else {
			db = db.Where("created_at < ? OR (created_at = ? AND id < ?)", cursorTime, cursorTime, cursorID)
		}
	}

	if order == OrderAsc {
		db = db.Order("created_at ASC, id ASC")
	} else {
		db = db.Order("created_at DESC, id DESC")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var posts []*models.Post
	if err := db.Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *GormPostStore) Update(ctx context.Context, id string, upd PostUpdate) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if upd.Content != nil {
		fields["content"] = *upd.Content
	}
	if upd.ExpiresAt != nil {
		fields["expires_at"] = *upd.ExpiresAt
	}
	if upd.LikeCount != nil {
		count := *upd.LikeCount
		if count < 0 {
			count = 0
		}
		fields["like_count"] = count
	}
	if len(fields) == 0 {
		return &post, nil
	}

	if err := s.db.WithContext(ctx).Model(&post).Updates(fields).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GormLikeLedger is the durable like ledger. The toggle relies on a
// transaction, the unique (post_id, user_id) index and atomic counter
// expressions instead of an in-process lock.
type GormLikeLedger struct {
	db *gorm.DB
}

// NewGormLikeLedger creates a like ledger bound to db.
func NewGormLikeLedger(db *gorm.DB) *GormLikeLedger {
	return &GormLikeLedger{db: db}
}

func (l *GormLikeLedger) Find(ctx context.Context, postID, userID string) (*models.Like, error) {
	var like models.Like
	err := l.db.WithContext(ctx).First(&like, "post_id = ? AND user_id = ?", postID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (l *GormLikeLedger) Create(ctx context.Context, postID, userID string) (*models.Like, error) {
	like := &models.Like{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(like).Error; err != nil {
		return nil, err
	}
	return like, nil
}

func (l *GormLikeLedger) Delete(ctx context.Context, id string) error {
	return l.db.WithContext(ctx).Delete(&models.Like{}, "id = ?", id).Error
}

func (l *GormLikeLedger) Toggle(ctx context.Context, postID, userID string) (*models.Post, error) {
	var out *models.Post
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var like models.Like
		err := tx.First(&like, "post_id = ? AND user_id = ?", postID, userID).Error
		switch {
		case err == nil:
			res := tx.Delete(&models.Like{}, "id = ?", like.ID)
			if res.Error != nil {
				return res.Error
			}
			// Only decrement when this transaction actually removed the row,
			// and never below zero.
			if res.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error; err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			newLike := models.Like{
				ID:        uuid.NewString(),
				PostID:    postID,
				UserID:    userID,
				CreatedAt: time.Now().UTC(),
			}
			// ON CONFLICT DO NOTHING absorbs the race where another toggle
			// inserted the pair between our lookup and this insert.
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&newLike)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
					return err
				}
			}
		default:
			return err
		}

		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			return err
		}
		out = &post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
