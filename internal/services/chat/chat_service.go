package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/models"
	"github.com/mkornilova/baraholka-api/internal/pubsub"
	"github.com/mkornilova/baraholka-api/internal/utils"
)

// Store — контракт хранилища диалогов и сообщений
type Store interface {
	FindConversation(ctx context.Context, productID *uuid.UUID, buyerID, sellerID uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	ProfileExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ChatService представляет сервис для работы с диалогами
type ChatService struct {
	cfg        *config.Config
	store      Store
	bus        pubsub.Pubsub
	jwtService *utils.JWTService
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(cfg *config.Config, store Store, bus pubsub.Pubsub) *ChatService {
	return &ChatService{
		cfg:        cfg,
		store:      store,
		bus:        bus,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// StartConversation начинает диалог покупателя с продавцом по товару.
// Повторный вызов для той же тройки (товар, покупатель, продавец)
// возвращает существующий диалог без создания дубликата
func (s *ChatService) StartConversation(ctx context.Context, initiatorID, sellerID uuid.UUID, productID *uuid.UUID) (*models.Conversation, bool, error) {
	if initiatorID == sellerID {
		return nil, false, apperr.ErrSelfDeal
	}

	exists, err := s.store.ProfileExists(ctx, sellerID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, fmt.Errorf("%w: собеседник не найден", apperr.ErrNotFound)
	}

	conv, err := s.store.FindConversation(ctx, productID, initiatorID, sellerID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}

	conv = &models.Conversation{
		ID:        uuid.New(),
		ProductID: productID,
		BuyerID:   initiatorID,
		SellerID:  sellerID,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// ListConversations возвращает диалоги пользователя с последним сообщением
// и счетчиком непрочитанных, по убыванию времени последнего сообщения
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// GetConversation возвращает диалог. Для не-участника диалог не существует:
// на путях чтения авторизация схлопывается в "не найдено"
func (s *ChatService) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.ErrNotFound
	}
	return conv, nil
}

// ListMessages возвращает сообщения диалога по возрастанию времени создания.
// Не-участник получает пустой список без ошибки (fail-closed)
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]models.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []models.Message{}, nil
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return []models.Message{}, nil
	}
	return s.store.ListMessages(ctx, conversationID)
}

// SendMessage сохраняет сообщение, обновляет время последнего сообщения
// диалога и публикует событие вставки для открытых представлений
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: текст сообщения не может быть пустым", apperr.ErrValidation)
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrForbidden
		}
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, apperr.ErrForbidden
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.publishMessage(msg)
	return msg, nil
}

// MarkRead помечает прочитанными все чужие сообщения диалога.
// Вызов идемпотентен; свои сообщения читатель пометить не может
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrForbidden
		}
		return err
	}
	if !conv.HasParticipant(readerID) {
		return apperr.ErrForbidden
	}
	return s.store.MarkMessagesRead(ctx, conversationID, readerID)
}

// publishMessage отправляет событие вставки в шину. Сообщение уже в БД,
// сбой доставки live-события не считается ошибкой отправки
func (s *ChatService) publishMessage(msg *models.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Ошибка сериализации события сообщения: %v", err)
		return
	}
	if err := s.bus.Publish(pubsub.ConversationTopic(msg.ConversationID), payload); err != nil {
		log.Printf("Ошибка публикации события сообщения: %v", err)
	}
}
