// Package dto contains data transfer objects for the bot domain
package dto

// DownloadEvent represents an outcome event published to the
// downloads event stream
type DownloadEvent struct {
	EventType    string `json:"event_type"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Format       string `json:"format,omitempty"`
	Platform     string `json:"platform"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// UserReportEvent represents a user problem report published to the
// downloads event stream
type UserReportEvent struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}
