package models

import "time"

// MessageStatus tracks how far a message has travelled toward its receiver.
type MessageStatus string

const (
	StatusSent MessageStatus = "sent"
	// StatusDelivered is part of the model but no operation currently
	// transitions into it; it becomes reachable once a transport
	// acknowledgment signal is defined.
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// Message represents a direct message between two users.
type Message struct {
	ID         string        `db:"id" json:"id"`
	SenderID   string        `db:"sender_id" json:"sender_id"`
	ReceiverID string        `db:"receiver_id" json:"receiver_id"`
	Content    string        `db:"content" json:"content"`
	Status     MessageStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// Pagination describes the page window returned by a conversation query.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	HasMore     bool `json:"has_more"`
}
