package domain

import "time"

// Message is a directed note from one user to another.
type Message struct {
	ID          string
	SenderID    string
	ReceiverID  string
	Content     string
	IsEncrypted bool
	Hash        string
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
