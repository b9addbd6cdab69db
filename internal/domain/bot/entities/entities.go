// Package entities contains domain entities
package entities

import "time"

// User represents a Telegram user tracked by the bot
type User struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	Username  string    `gorm:"column:username"`
	FirstSeen time.Time `gorm:"column:first_seen;autoCreateTime"`
	LastSeen  time.Time `gorm:"column:last_seen;autoCreateTime"`
}

// TableName overrides the table name for gorm
func (User) TableName() string {
	return "users"
}

// Statistic represents one recorded bot event
type Statistic struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	EventType    string    `gorm:"column:event_type;not null;index"`
	UserID       int64     `gorm:"column:user_id"`
	Username     string    `gorm:"column:username"`
	VideoFormat  string    `gorm:"column:video_format"`
	Platform     string    `gorm:"column:platform"`
	Success      bool      `gorm:"column:success;not null;default:true;index"`
	ErrorMessage string    `gorm:"column:error_message"`
	Timestamp    time.Time `gorm:"column:timestamp;autoCreateTime;index"`
}

// TableName overrides the table name for gorm
func (Statistic) TableName() string {
	return "statistics"
}

// Report represents a user-submitted problem report
type Report struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id"`
	Username  string    `gorm:"column:username"`
	Text      string    `gorm:"column:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the table name for gorm
func (Report) TableName() string {
	return "user_reports"
}
