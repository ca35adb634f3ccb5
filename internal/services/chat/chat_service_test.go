package chat

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/models"
	"github.com/mkornilova/baraholka-api/internal/pubsub"
)

// fakeChatStore — хранилище диалогов в памяти для тестов сервиса
type fakeChatStore struct {
	mu            sync.Mutex
	profiles      map[uuid.UUID]bool
	conversations map[uuid.UUID]*models.Conversation
	messages      map[uuid.UUID][]models.Message
}

func newFakeChatStore(profiles ...uuid.UUID) *fakeChatStore {
	s := &fakeChatStore{
		profiles:      make(map[uuid.UUID]bool),
		conversations: make(map[uuid.UUID]*models.Conversation),
		messages:      make(map[uuid.UUID][]models.Message),
	}
	for _, id := range profiles {
		s.profiles[id] = true
	}
	return s
}

func sameProduct(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *fakeChatStore) FindConversation(_ context.Context, productID *uuid.UUID, buyerID, sellerID uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.conversations {
		if sameProduct(conv.ProductID, productID) && conv.BuyerID == buyerID && conv.SellerID == sellerID {
			c := *conv
			return &c, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *fakeChatStore) CreateConversation(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	c := *conv
	s.conversations[conv.ID] = &c
	return nil
}

func (s *fakeChatStore) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	c := *conv
	return &c, nil
}

func (s *fakeChatStore) ListConversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Conversation
	for _, conv := range s.conversations {
		if !conv.HasParticipant(userID) {
			continue
		}
		c := *conv
		msgs := s.messages[conv.ID]
		for i := range msgs {
			if msgs[i].SenderID != userID && !msgs[i].IsRead {
				c.UnreadCount++
			}
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			c.LastMessage = &last
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out, nil
}

func (s *fakeChatStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *fakeChatStore) CreateMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return apperr.ErrNotFound
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	at := msg.CreatedAt
	conv.LastMessageAt = &at
	conv.UpdatedAt = at
	return nil
}

func (s *fakeChatStore) MarkMessagesRead(_ context.Context, conversationID, readerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	for i := range msgs {
		if msgs[i].SenderID != readerID {
			msgs[i].IsRead = true
		}
	}
	return nil
}

func (s *fakeChatStore) ProfileExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[id], nil
}

func (s *fakeChatStore) messageCount(conversationID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[conversationID])
}

func newTestChatService(store Store, bus pubsub.Pubsub) *ChatService {
	if bus == nil {
		bus = pubsub.NewMemoryPubsub()
	}
	return NewChatService(&config.Config{JWTSecret: "test-secret"}, store, bus)
}

func TestStartConversationWithSelf(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	svc := newTestChatService(newFakeChatStore(buyer), nil)

	_, _, err := svc.StartConversation(context.Background(), buyer, buyer, nil)
	require.ErrorIs(t, err, apperr.ErrSelfDeal)
}

func TestStartConversationUnknownPeer(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	svc := newTestChatService(newFakeChatStore(buyer), nil)

	_, _, err := svc.StartConversation(context.Background(), buyer, uuid.New(), nil)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStartConversationIdempotent(t *testing.T) {
	t.Parallel()

	buyer, seller := uuid.New(), uuid.New()
	productID := uuid.New()
	store := newFakeChatStore(buyer, seller)
	svc := newTestChatService(store, nil)

	first, created, err := svc.StartConversation(context.Background(), buyer, seller, &productID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.StartConversation(context.Background(), buyer, seller, &productID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Диалог без привязки к товару — другая тройка
	third, created, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	t.Parallel()

	buyer, seller := uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), conv.ID, buyer, "   \t\n  ")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, store.messageCount(conv.ID))
}

func TestSendMessageTrimsContent(t *testing.T) {
	t.Parallel()

	buyer, seller := uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	msg, err := svc.SendMessage(context.Background(), conv.ID, buyer, "  привет  ")
	require.NoError(t, err)
	assert.Equal(t, "привет", msg.Content)
	assert.False(t, msg.IsRead)
}

func TestSendMessageForbiddenForOutsider(t *testing.T) {
	t.Parallel()

	buyer, seller, outsider := uuid.New(), uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller, outsider)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), conv.ID, outsider, "пустите")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, 0, store.messageCount(conv.ID))
}

func TestSendMessageUnknownConversation(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	svc := newTestChatService(newFakeChatStore(buyer), nil)

	_, err := svc.SendMessage(context.Background(), uuid.New(), buyer, "эй")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSendMessagePublishesInsertEvent(t *testing.T) {
	t.Parallel()

	buyer, seller := uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller)
	bus := pubsub.NewMemoryPubsub()
	defer bus.Close()
	svc := newTestChatService(store, bus)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	events := make(chan []byte, 1)
	cancel, err := bus.Subscribe(pubsub.ConversationTopic(conv.ID), func(_ context.Context, payload []byte) {
		events <- payload
	})
	require.NoError(t, err)
	defer cancel()

	sent, err := svc.SendMessage(context.Background(), conv.ID, buyer, "привет")
	require.NoError(t, err)

	var got models.Message
	require.NoError(t, json.Unmarshal(<-events, &got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "привет", got.Content)
}

func TestListMessagesOrderAndFailClosed(t *testing.T) {
	t.Parallel()

	buyer, seller, outsider := uuid.New(), uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller, outsider)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	first, err := svc.SendMessage(context.Background(), conv.ID, buyer, "первое")
	require.NoError(t, err)
	second, err := svc.SendMessage(context.Background(), conv.ID, seller, "второе")
	require.NoError(t, err)

	msgs, err := svc.ListMessages(context.Background(), conv.ID, buyer)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)

	// Не-участник и несуществующий диалог неотличимы: пустой список без ошибки
	msgs, err = svc.ListMessages(context.Background(), conv.ID, outsider)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = svc.ListMessages(context.Background(), uuid.New(), buyer)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGetConversationHiddenFromOutsider(t *testing.T) {
	t.Parallel()

	buyer, seller, outsider := uuid.New(), uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller, outsider)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	got, err := svc.GetConversation(context.Background(), conv.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = svc.GetConversation(context.Background(), conv.ID, outsider)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarkReadIdempotentAndSkipsOwnMessages(t *testing.T) {
	t.Parallel()

	buyer, seller := uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), conv.ID, buyer, "от покупателя")
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), conv.ID, seller, "от продавца")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), conv.ID, buyer))

	msgs, err := svc.ListMessages(context.Background(), conv.ID, buyer)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Прочитанным стало только чужое сообщение
	assert.False(t, msgs[0].IsRead)
	assert.True(t, msgs[1].IsRead)

	// Повторный вызов ничего не меняет
	require.NoError(t, svc.MarkRead(context.Background(), conv.ID, buyer))
	again, err := svc.ListMessages(context.Background(), conv.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, msgs, again)
}

func TestMarkReadForbiddenForOutsider(t *testing.T) {
	t.Parallel()

	buyer, seller, outsider := uuid.New(), uuid.New(), uuid.New()
	store := newFakeChatStore(buyer, seller, outsider)
	svc := newTestChatService(store, nil)

	conv, _, err := svc.StartConversation(context.Background(), buyer, seller, nil)
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), conv.ID, outsider)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.MarkRead(context.Background(), uuid.New(), buyer)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestListConversationsOrderingAndUnread(t *testing.T) {
	t.Parallel()

	me, alice, bob := uuid.New(), uuid.New(), uuid.New()
	store := newFakeChatStore(me, alice, bob)
	svc := newTestChatService(store, nil)

	withAlice, _, err := svc.StartConversation(context.Background(), me, alice, nil)
	require.NoError(t, err)
	withBob, _, err := svc.StartConversation(context.Background(), me, bob, nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), withAlice.ID, alice, "раз")
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), withAlice.ID, alice, "два")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.SendMessage(context.Background(), withBob.ID, bob, "позже")
	require.NoError(t, err)

	convs, err := svc.ListConversations(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	// Диалог с более свежим сообщением первый
	assert.Equal(t, withBob.ID, convs[0].ID)
	assert.Equal(t, withAlice.ID, convs[1].ID)

	assert.Equal(t, 1, convs[0].UnreadCount)
	assert.Equal(t, 2, convs[1].UnreadCount)
	require.NotNil(t, convs[1].LastMessage)
	assert.Equal(t, "два", convs[1].LastMessage.Content)

	// После прочтения счетчик обнуляется
	require.NoError(t, svc.MarkRead(context.Background(), withAlice.ID, me))
	convs, err = svc.ListConversations(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, 0, convs[1].UnreadCount)

	// Посторонний не видит чужих диалогов
	convs, err = svc.ListConversations(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestConversationWithoutMessagesSortsLast(t *testing.T) {
	t.Parallel()

	me, alice, bob := uuid.New(), uuid.New(), uuid.New()
	store := newFakeChatStore(me, alice, bob)
	svc := newTestChatService(store, nil)

	empty, _, err := svc.StartConversation(context.Background(), me, alice, nil)
	require.NoError(t, err)
	active, _, err := svc.StartConversation(context.Background(), me, bob, nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), active.ID, bob, "привет")
	require.NoError(t, err)

	convs, err := svc.ListConversations(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, active.ID, convs[0].ID)
	assert.Equal(t, empty.ID, convs[1].ID)
}
