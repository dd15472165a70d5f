package models

// Wire event types pushed over live connections.
const (
	EventNewMessage    = "new-message"
	EventMessageUpdate = "message-updated"
	EventMessageDelete = "message-deleted"
	EventStatusUpdate  = "message-status-update"
	EventTyping        = "typing"
	EventStoppedTyping = "stopped-typing"
)

// WireEvent is the envelope broadcast through live connections.
type WireEvent struct {
	Type      string        `json:"type"`
	Message   *Message      `json:"message,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Status    MessageStatus `json:"status,omitempty"`
	Sender    string        `json:"sender,omitempty"`
	Receiver  string        `json:"receiver,omitempty"`
}

// NewMessageEvent carries the full record so every client view can update.
func NewMessageEvent(msg Message) WireEvent {
	return WireEvent{Type: EventNewMessage, Message: &msg}
}

// MessageUpdatedEvent carries the full mutated record.
func MessageUpdatedEvent(msg Message) WireEvent {
	return WireEvent{Type: EventMessageUpdate, Message: &msg}
}

// MessageDeletedEvent carries only the id of the removed message.
func MessageDeletedEvent(messageID string) WireEvent {
	return WireEvent{Type: EventMessageDelete, MessageID: messageID}
}

// StatusChangedEvent carries the id and the new status.
func StatusChangedEvent(messageID string, status MessageStatus) WireEvent {
	return WireEvent{Type: EventStatusUpdate, MessageID: messageID, Status: status}
}

// TypingEvent signals that sender is typing (or stopped) toward receiver.
func TypingEvent(eventType, sender, receiver string) WireEvent {
	return WireEvent{Type: eventType, Sender: sender, Receiver: receiver}
}
