package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/delivery"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/presence"
)

type sinkConn struct {
	id     string
	events []models.WireEvent
}

func (s *sinkConn) ID() string { return s.id }

func (s *sinkConn) WriteEvent(event models.WireEvent) error {
	s.events = append(s.events, event)
	return nil
}

// u1 sends to an offline u2: the message persists, u1's own connection sees
// it live, u2 sees nothing until the next history fetch.
func TestSendToOfflineReceiverScenario(t *testing.T) {
	registry := presence.NewRegistry()
	senderConn := &sinkConn{id: "c1"}
	registry.Register("u1", senderConn)

	repo := new(mocks.MessageRepositoryMock)
	svc := NewConversationService(repo, delivery.NewRouter(registry))

	stored := models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Content: "hi", Status: models.StatusSent}
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").Return(stored, nil).Once()

	_, err := svc.Send(context.Background(), "u1", "u2", "hi")
	require.NoError(t, err)

	require.Len(t, senderConn.events, 1)
	assert.Equal(t, models.EventNewMessage, senderConn.events[0].Type)

	// u2 comes back and fetches the conversation.
	repo.On("ListConversation", mock.Anything, "u2", "u1", 0, 50).Return([]models.Message{stored}, nil).Once()
	repo.On("CountConversation", mock.Anything, "u2", "u1").Return(1, nil).Once()

	msgs, pagination, err := svc.ListConversation(context.Background(), "u2", "u1", 1, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.StatusSent, msgs[0].Status)
	assert.False(t, pagination.HasMore)
	repo.AssertExpectations(t)
}

// u2 is now online: a fresh send reaches both connections with the same
// record.
func TestSendToOnlineReceiverScenario(t *testing.T) {
	registry := presence.NewRegistry()
	senderConn := &sinkConn{id: "c1"}
	receiverConn := &sinkConn{id: "c2"}
	registry.Register("u1", senderConn)
	registry.Register("u2", receiverConn)

	repo := new(mocks.MessageRepositoryMock)
	svc := NewConversationService(repo, delivery.NewRouter(registry))

	stored := models.Message{ID: "m2", SenderID: "u1", ReceiverID: "u2", Content: "hi again", Status: models.StatusSent}
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi again").Return(stored, nil).Once()

	_, err := svc.Send(context.Background(), "u1", "u2", "hi again")
	require.NoError(t, err)

	require.Len(t, senderConn.events, 1)
	require.Len(t, receiverConn.events, 1)
	assert.Equal(t, senderConn.events[0].Message.ID, receiverConn.events[0].Message.ID)
}
