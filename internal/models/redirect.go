package models

import (
	"time"
)

// Redirect is one recorded resolution of a link. Rows are written once on
// the redirect path and never updated; the derived fields (country, device,
// browser) are computed at write time.
type Redirect struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LinkID    uint      `gorm:"not null;index" json:"link_id"`
	Link      *Link     `gorm:"foreignKey:LinkID" json:"link,omitempty"`
	IPAddress string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string    `gorm:"size:512" json:"user_agent,omitempty"`
	Referrer  string    `gorm:"size:512" json:"referrer"`
	Country   string    `gorm:"size:100;index" json:"country"`
	Device    string    `gorm:"size:20;index" json:"device"`
	Browser   string    `gorm:"size:50;index" json:"browser"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Redirect) TableName() string {
	return "redirects"
}
