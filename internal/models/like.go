package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like records that a user likes a post. The (PostID, UserID) pair is unique
// among active rows; toggling off deletes the row instead of flipping a flag,
// so CreatedAt is always the instant of the currently active like.
type Like struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"not null;uniqueIndex:idx_post_user;size:36" json:"post_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_post_user;size:36" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns an ID when the caller did not provide one.
func (l *Like) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
