package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/models"
)

// ChatStore выполняет запросы к таблицам conversations и messages
type ChatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore создает новый экземпляр ChatStore
func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

// FindConversation ищет диалог по тройке (товар, покупатель, продавец).
// Возвращает apperr.ErrNotFound, если диалога нет
func (s *ChatStore) FindConversation(ctx context.Context, productID *uuid.UUID, buyerID, sellerID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.pool.QueryRow(ctx, `
        SELECT id, product_id, buyer_id, seller_id, last_message_at, created_at, updated_at
        FROM conversations
        WHERE product_id IS NOT DISTINCT FROM $1 AND buyer_id = $2 AND seller_id = $3
    `, productID, buyerID, sellerID).Scan(
		&conv.ID,
		&conv.ProductID,
		&conv.BuyerID,
		&conv.SellerID,
		&conv.LastMessageAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска диалога: %w", err)
	}
	return &conv, nil
}

// CreateConversation вставляет новый диалог
func (s *ChatStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
        INSERT INTO conversations (id, product_id, buyer_id, seller_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, conv.ID, conv.ProductID, conv.BuyerID, conv.SellerID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания диалога: %w", err)
	}
	return nil
}

// GetConversation возвращает диалог с данными товара и участников
func (s *ChatStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.pool.QueryRow(ctx, `
        SELECT id, product_id, buyer_id, seller_id, last_message_at, created_at, updated_at
        FROM conversations
        WHERE id = $1
    `, id).Scan(
		&conv.ID,
		&conv.ProductID,
		&conv.BuyerID,
		&conv.SellerID,
		&conv.LastMessageAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения диалога: %w", err)
	}

	conv.Buyer = getProfileInfo(ctx, s.pool, conv.BuyerID)
	conv.Seller = getProfileInfo(ctx, s.pool, conv.SellerID)
	if conv.ProductID != nil {
		conv.Product = getProductInfo(ctx, s.pool, *conv.ProductID)
	}

	return &conv, nil
}

// ListConversations возвращает диалоги пользователя, отсортированные по
// времени последнего сообщения (пустые диалоги — в конце). Последнее
// сообщение и счетчик непрочитанных собираются одним запросом
func (s *ChatStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT c.id, c.product_id, c.buyer_id, c.seller_id, c.last_message_at, c.created_at, c.updated_at,
               bp.nickname, bp.avatar_url,
               sp.nickname, sp.avatar_url,
               lm.id, lm.sender_id, lm.content, lm.is_read, lm.created_at,
               COUNT(m.id) FILTER (WHERE m.sender_id <> $1 AND m.is_read = false) AS unread_count
        FROM conversations c
        JOIN profiles bp ON bp.id = c.buyer_id
        JOIN profiles sp ON sp.id = c.seller_id
        LEFT JOIN messages m ON m.conversation_id = c.id
        LEFT JOIN LATERAL (
            SELECT id, sender_id, content, is_read, created_at
            FROM messages
            WHERE conversation_id = c.id
            ORDER BY created_at DESC, id DESC
            LIMIT 1
        ) lm ON true
        WHERE c.buyer_id = $1 OR c.seller_id = $1
        GROUP BY c.id, bp.id, sp.id, lm.id, lm.sender_id, lm.content, lm.is_read, lm.created_at
        ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса диалогов: %w", err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var buyer, seller models.Profile
		var lmID, lmSenderID *uuid.UUID
		var lmContent *string
		var lmIsRead *bool
		var lmCreatedAt *time.Time

		if err := rows.Scan(
			&conv.ID,
			&conv.ProductID,
			&conv.BuyerID,
			&conv.SellerID,
			&conv.LastMessageAt,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&buyer.Nickname,
			&buyer.AvatarURL,
			&seller.Nickname,
			&seller.AvatarURL,
			&lmID,
			&lmSenderID,
			&lmContent,
			&lmIsRead,
			&lmCreatedAt,
			&conv.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования диалога: %w", err)
		}

		buyer.ID = conv.BuyerID
		seller.ID = conv.SellerID
		conv.Buyer = &buyer
		conv.Seller = &seller

		if lmID != nil {
			conv.LastMessage = &models.Message{
				ID:             *lmID,
				ConversationID: conv.ID,
				SenderID:       *lmSenderID,
				Content:        *lmContent,
				IsRead:         *lmIsRead,
				CreatedAt:      *lmCreatedAt,
			}
		}

		if conv.ProductID != nil {
			conv.Product = getProductInfo(ctx, s.pool, *conv.ProductID)
		}

		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// ListMessages возвращает сообщения диалога по возрастанию времени создания
func (s *ChatStore) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, conversation_id, sender_id, content, is_read, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC, id ASC
    `, conversationID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сообщений: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Content,
			&msg.IsRead,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сообщения: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// CreateMessage вставляет сообщение и обновляет last_message_at диалога
// в одной транзакции, чтобы диалог не выглядел устаревшим после успешной отправки
func (s *ChatStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO messages (id, conversation_id, sender_id, content, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.IsRead, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сообщения: %w", err)
	}

	_, err = tx.Exec(ctx, `
        UPDATE conversations
        SET last_message_at = $1, updated_at = $1
        WHERE id = $2
    `, msg.CreatedAt, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("ошибка обновления диалога: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// MarkMessagesRead помечает прочитанными все чужие сообщения диалога.
// Повторный вызов не меняет состояние
func (s *ChatStore) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
        UPDATE messages
        SET is_read = true
        WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = false
    `, conversationID, readerID)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса прочтения: %w", err)
	}
	return nil
}

// ProfileExists проверяет существование пользователя
func (s *ChatStore) ProfileExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)
    `, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки пользователя: %w", err)
	}
	return exists, nil
}
