package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// DuplicateSendWindow is the span during which an identical repeated send
// from the same sender to the same receiver is rejected. It absorbs
// client-side double-submission, it is not a general rate limiter.
const DuplicateSendWindow = time.Second

const (
	DefaultPage     = 1
	DefaultPageSize = 50
)

// Deliverer fans out events to live connections after a durable write.
type Deliverer interface {
	Route(event models.WireEvent, senderID, receiverID string)
	RouteToSender(event models.WireEvent, senderID string)
}

// ConversationService orchestrates the lifecycle of direct messages:
// validation and ownership checks, durable persistence, then live fan-out.
type ConversationService struct {
	repo   repositories.MessageRepository
	router Deliverer

	mu          sync.Mutex
	recentSends map[sendKey]time.Time
	now         func() time.Time
}

type sendKey struct {
	sender   string
	receiver string
	content  string
}

// NewConversationService builds a ConversationService.
func NewConversationService(repo repositories.MessageRepository, router Deliverer) *ConversationService {
	return &ConversationService{
		repo:        repo,
		router:      router,
		recentSends: make(map[sendKey]time.Time),
		now:         time.Now,
	}
}

// Send validates, suppresses duplicate submissions, persists the message
// with status 'sent' and routes it to both participants' live connections.
func (s *ConversationService) Send(ctx context.Context, senderID, receiverID, content string) (models.Message, error) {
	if senderID == "" || receiverID == "" || content == "" {
		return models.Message{}, fmt.Errorf("%w: missing required fields", ErrValidation)
	}

	if s.isDuplicateSend(senderID, receiverID, content) {
		return models.Message{}, ErrRateLimited
	}

	msg, err := s.repo.CreateMessage(ctx, senderID, receiverID, content)
	if err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}

	// Recorded only after the write succeeded: a failed persist leaves no
	// partial effect, so the client is free to retry the same send.
	s.recordSend(senderID, receiverID, content)

	s.router.Route(models.NewMessageEvent(msg), msg.SenderID, msg.ReceiverID)
	return msg, nil
}

// isDuplicateSend reports whether an identical send was persisted inside the
// window. The check and the later record are not atomic across two
// concurrent identical sends; the window is a heuristic, not a correctness
// guarantee.
func (s *ConversationService) isDuplicateSend(senderID, receiverID, content string) bool {
	key := sendKey{sender: senderID, receiver: receiverID, content: content}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.recentSends {
		if now.Sub(at) >= DuplicateSendWindow {
			delete(s.recentSends, k)
		}
	}
	at, ok := s.recentSends[key]
	return ok && now.Sub(at) < DuplicateSendWindow
}

func (s *ConversationService) recordSend(senderID, receiverID, content string) {
	key := sendKey{sender: senderID, receiver: receiverID, content: content}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentSends[key] = s.now()
}

// ListConversation returns the messages between the unordered pair
// {requesterID, otherUserID}, newest first, with pagination info. No side
// effects.
func (s *ConversationService) ListConversation(ctx context.Context, requesterID, otherUserID string, page, pageSize int) ([]models.Message, models.Pagination, error) {
	if requesterID == "" || otherUserID == "" {
		return nil, models.Pagination{}, fmt.Errorf("%w: missing required parameters", ErrValidation)
	}
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	msgs, err := s.repo.ListConversation(ctx, requesterID, otherUserID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list conversation: %w", err)
	}

	total, err := s.repo.CountConversation(ctx, requesterID, otherUserID)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count conversation: %w", err)
	}

	pagination := models.Pagination{
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		HasMore:     page*pageSize < total,
	}
	return msgs, pagination, nil
}

// Update mutates the content of a message. Only the sender may update.
func (s *ConversationService) Update(ctx context.Context, requesterID, messageID, content string) (models.Message, error) {
	if content == "" {
		return models.Message{}, fmt.Errorf("%w: content is required", ErrValidation)
	}

	msg, err := s.getOwned(ctx, requesterID, messageID, roleSender)
	if err != nil {
		return models.Message{}, err
	}

	updated, err := s.repo.UpdateContent(ctx, msg.ID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, fmt.Errorf("update message: %w", err)
	}

	s.router.Route(models.MessageUpdatedEvent(updated), updated.SenderID, updated.ReceiverID)
	return updated, nil
}

// Delete removes a message permanently. Only the sender may delete.
func (s *ConversationService) Delete(ctx context.Context, requesterID, messageID string) error {
	msg, err := s.getOwned(ctx, requesterID, messageID, roleSender)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMessage(ctx, msg.ID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}

	s.router.Route(models.MessageDeletedEvent(msg.ID), msg.SenderID, msg.ReceiverID)
	return nil
}

// MarkRead transitions a message to 'read'. Only the receiver may mark a
// message read, the inverse ownership polarity from Update and Delete. The
// status change is routed to the sender only; the receiver already knows.
func (s *ConversationService) MarkRead(ctx context.Context, requesterID, messageID string) (models.Message, error) {
	msg, err := s.getOwned(ctx, requesterID, messageID, roleReceiver)
	if err != nil {
		return models.Message{}, err
	}

	if msg.Status == models.StatusRead {
		return msg, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, msg.ID, models.StatusRead)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, fmt.Errorf("mark message read: %w", err)
	}

	s.router.RouteToSender(models.StatusChangedEvent(updated.ID, updated.Status), updated.SenderID)
	return updated, nil
}

// participantRole makes the ownership polarity of each operation explicit:
// Update and Delete require the sender, MarkRead requires the receiver.
type participantRole int

const (
	roleSender participantRole = iota
	roleReceiver
)

func (s *ConversationService) getOwned(ctx context.Context, requesterID, messageID string, role participantRole) (models.Message, error) {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, fmt.Errorf("load message: %w", err)
	}

	owner := msg.SenderID
	if role == roleReceiver {
		owner = msg.ReceiverID
	}
	if owner != requesterID {
		return models.Message{}, ErrForbidden
	}
	return msg, nil
}
