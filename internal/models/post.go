// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is an ephemeral piece of content. It stays visible until ExpiresAt and
// remains in storage afterwards; expiration is a read-time filter, not a delete.
type Post struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	AuthorID string `gorm:"not null;index;size:36" json:"author_id"`
	Content  string `gorm:"type:text;not null" json:"content"`
	// LikeCount is denormalized; it is mutated only by the like ledger's
	// toggle operation and always matches the number of active like rows.
	LikeCount int       `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// Expired reports whether the post is no longer visible at the given instant.
// A post whose ExpiresAt equals now is already expired.
func (p *Post) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// BeforeCreate assigns an ID when the caller did not provide one.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
