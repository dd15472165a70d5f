package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type routedEvent struct {
	event    models.WireEvent
	sender   string
	receiver string
}

type recordingDeliverer struct {
	routed   []routedEvent
	toSender []routedEvent
}

func (d *recordingDeliverer) Route(event models.WireEvent, senderID, receiverID string) {
	d.routed = append(d.routed, routedEvent{event: event, sender: senderID, receiver: receiverID})
}

func (d *recordingDeliverer) RouteToSender(event models.WireEvent, senderID string) {
	d.toSender = append(d.toSender, routedEvent{event: event, sender: senderID})
}

func newTestService(repo *mocks.MessageRepositoryMock) (*ConversationService, *recordingDeliverer) {
	deliverer := &recordingDeliverer{}
	return NewConversationService(repo, deliverer), deliverer
}

func TestSendValidation(t *testing.T) {
	svc, _ := newTestService(new(mocks.MessageRepositoryMock))

	cases := []struct{ sender, receiver, content string }{
		{"", "u2", "hi"},
		{"u1", "", "hi"},
		{"u1", "u2", ""},
	}
	for _, tc := range cases {
		_, err := svc.Send(context.Background(), tc.sender, tc.receiver, tc.content)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestSendPersistsThenRoutes(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, deliverer := newTestService(repo)

	stored := models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Content: "hi", Status: models.StatusSent}
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").Return(stored, nil).Once()

	msg, err := svc.Send(context.Background(), "u1", "u2", "hi")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)

	require.Len(t, deliverer.routed, 1)
	assert.Equal(t, models.EventNewMessage, deliverer.routed[0].event.Type)
	assert.Equal(t, "u1", deliverer.routed[0].sender)
	assert.Equal(t, "u2", deliverer.routed[0].receiver)
	repo.AssertExpectations(t)
}

func TestSendStoreFailureNoEmission(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, deliverer := newTestService(repo)

	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").Return(models.Message{}, assert.AnError).Once()

	_, err := svc.Send(context.Background(), "u1", "u2", "hi")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	// Live emission never happens without persistence succeeding first.
	assert.Empty(t, deliverer.routed)
	repo.AssertExpectations(t)
}

func TestSendDuplicateSuppression(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, _ := newTestService(repo)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").
		Return(models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Content: "hi"}, nil).Once()

	_, err := svc.Send(context.Background(), "u1", "u2", "hi")
	require.NoError(t, err)

	// Identical send inside the window is rejected, nothing persisted.
	now = now.Add(500 * time.Millisecond)
	_, err = svc.Send(context.Background(), "u1", "u2", "hi")
	require.ErrorIs(t, err, ErrRateLimited)

	// Different content passes the window untouched.
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi again").
		Return(models.Message{ID: "m2", SenderID: "u1", ReceiverID: "u2", Content: "hi again"}, nil).Once()
	_, err = svc.Send(context.Background(), "u1", "u2", "hi again")
	require.NoError(t, err)

	// The same content after the window elapses yields a second record.
	now = now.Add(DuplicateSendWindow)
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").
		Return(models.Message{ID: "m3", SenderID: "u1", ReceiverID: "u2", Content: "hi"}, nil).Once()
	_, err = svc.Send(context.Background(), "u1", "u2", "hi")
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestSendRetryAfterStoreFailureNotSuppressed(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, _ := newTestService(repo)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// A failed write leaves no partial effect: the window must not have
	// recorded the attempt.
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").Return(models.Message{}, assert.AnError).Once()
	_, err := svc.Send(context.Background(), "u1", "u2", "hi")
	require.Error(t, err)

	// The client retries the identical send moments later and it reaches
	// the store.
	now = now.Add(200 * time.Millisecond)
	repo.On("CreateMessage", mock.Anything, "u1", "u2", "hi").
		Return(models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Content: "hi"}, nil).Once()
	_, err = svc.Send(context.Background(), "u1", "u2", "hi")
	require.NoError(t, err)

	// Once persisted, the usual suppression applies again.
	now = now.Add(200 * time.Millisecond)
	_, err = svc.Send(context.Background(), "u1", "u2", "hi")
	require.ErrorIs(t, err, ErrRateLimited)

	repo.AssertExpectations(t)
}

func TestListConversationPagination(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, _ := newTestService(repo)

	msgs := []models.Message{{ID: "m2"}, {ID: "m1"}}
	repo.On("ListConversation", mock.Anything, "u1", "u2", 50, 50).Return(msgs, nil).Once()
	repo.On("CountConversation", mock.Anything, "u1", "u2").Return(120, nil).Once()

	got, pagination, err := svc.ListConversation(context.Background(), "u1", "u2", 2, 50)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
	assert.Equal(t, 2, pagination.CurrentPage)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.True(t, pagination.HasMore)
	repo.AssertExpectations(t)
}

func TestListConversationLastPage(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, _ := newTestService(repo)

	repo.On("ListConversation", mock.Anything, "u2", "u1", 0, 50).Return([]models.Message{{ID: "m1"}}, nil).Once()
	repo.On("CountConversation", mock.Anything, "u2", "u1").Return(1, nil).Once()

	_, pagination, err := svc.ListConversation(context.Background(), "u2", "u1", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.TotalPages)
	assert.False(t, pagination.HasMore)
}

func TestListConversationDefaults(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, _ := newTestService(repo)

	repo.On("ListConversation", mock.Anything, "u1", "u2", 0, 50).Return(nil, nil).Once()
	repo.On("CountConversation", mock.Anything, "u1", "u2").Return(0, nil).Once()

	_, pagination, err := svc.ListConversation(context.Background(), "u1", "u2", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.CurrentPage)
	assert.False(t, pagination.HasMore)
}

func TestListConversationMissingParticipant(t *testing.T) {
	svc, _ := newTestService(new(mocks.MessageRepositoryMock))
	_, _, err := svc.ListConversation(context.Background(), "u1", "", 1, 50)
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOwnership(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, deliverer := newTestService(repo)

	stored := models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Content: "hi"}
	repo.On("GetMessage", mock.Anything, "m1").Return(stored, nil)

	// The receiver may not update.
	_, err := svc.Update(context.Background(), "u2", "m1", "edited")
	require.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, deliverer.routed)

	// The sender may.
	updated := stored
	updated.Content = "edited"
	repo.On("UpdateContent", mock.Anything, "m1", "edited").Return(updated, nil).Once()

	got, err := svc.Update(context.Background(), "u1", "m1", "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	require.Len(t, deliverer.routed, 1)
	assert.Equal(t, models.EventMessageUpdate, deliverer.routed[0].event.Type)
	repo.AssertExpectations(t)
}

func TestUpdateMissingMessage(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, _ := newTestService(repo)

	repo.On("GetMessage", mock.Anything, "nope").Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	_, err := svc.Update(context.Background(), "u1", "nope", "edited")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOwnership(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, deliverer := newTestService(repo)

	stored := models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2"}
	repo.On("GetMessage", mock.Anything, "m1").Return(stored, nil)

	require.ErrorIs(t, svc.Delete(context.Background(), "u2", "m1"), ErrForbidden)

	repo.On("DeleteMessage", mock.Anything, "m1").Return(nil).Once()
	require.NoError(t, svc.Delete(context.Background(), "u1", "m1"))

	require.Len(t, deliverer.routed, 1)
	assert.Equal(t, models.EventMessageDelete, deliverer.routed[0].event.Type)
	assert.Equal(t, "m1", deliverer.routed[0].event.MessageID)
	assert.Nil(t, deliverer.routed[0].event.Message)
	repo.AssertExpectations(t)
}

func TestMarkReadInversePolarity(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, deliverer := newTestService(repo)

	stored := models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Status: models.StatusSent}
	repo.On("GetMessage", mock.Anything, "m1").Return(stored, nil)

	// The sender may not mark their own message read.
	_, err := svc.MarkRead(context.Background(), "u1", "m1")
	require.ErrorIs(t, err, ErrForbidden)

	read := stored
	read.Status = models.StatusRead
	repo.On("UpdateStatus", mock.Anything, "m1", models.StatusRead).Return(read, nil).Once()

	got, err := svc.MarkRead(context.Background(), "u2", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, got.Status)

	// Status change goes to the sender only.
	assert.Empty(t, deliverer.routed)
	require.Len(t, deliverer.toSender, 1)
	assert.Equal(t, models.EventStatusUpdate, deliverer.toSender[0].event.Type)
	assert.Equal(t, "u1", deliverer.toSender[0].sender)
	repo.AssertExpectations(t)
}

func TestMarkReadNeverRegresses(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc, deliverer := newTestService(repo)

	stored := models.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Status: models.StatusRead}
	repo.On("GetMessage", mock.Anything, "m1").Return(stored, nil).Once()

	got, err := svc.MarkRead(context.Background(), "u2", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, got.Status)

	// Already read: no store write, no emission.
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, deliverer.toSender)
}
