package database

import (
	"time"

	"gorm.io/gorm"
)

// Session stores the opaque server-assigned user identity. A single row is
// kept per server base URL so switching servers does not clobber identities.
type Session struct {
	ID        uint      `gorm:"primaryKey"`
	ServerURL string    `gorm:"not null;uniqueIndex"`
	UserID    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "sessions"
}

// ChatMessage is one locally mirrored exchange with the assistant
type ChatMessage struct {
	ID           string    `gorm:"primaryKey"`
	UserID       string    `gorm:"not null;index"`
	UserMessage  string    `gorm:"not null"`
	AIResponse   string    `gorm:"not null"`
	CurrentVideo string    `gorm:"default:''"`
	CreatedAt    time.Time `gorm:"index;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Session{},
		&ChatMessage{},
	)
}
