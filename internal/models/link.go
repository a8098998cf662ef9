package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Link struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Slug      string `gorm:"not null;size:50;index" json:"slug"`
	TargetURL string `gorm:"not null;type:text" json:"target_url"`
	Title     string `gorm:"size:255" json:"title,omitempty"`
	// Hits is maintained by the async counter job and may briefly trail
	// the redirects table.
	Hits      int64          `gorm:"default:0" json:"hits"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Redirects []Redirect `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"redirects,omitempty"`
}

func (Link) TableName() string {
	return "links"
}

// Expired reports whether the link is past its expiration at the given time.
// Links without an expiration never expire.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

func (l *Link) ShortURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + l.Slug
}
