package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`           // nullable for failed login attempts
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g. "LOGIN", "CREATE_LINK", "DELETE_LINK"
	EntityID  string    `gorm:"size:50" json:"entity_id"`       // slug or id of the affected object
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}
