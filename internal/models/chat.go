package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation представляет диалог между покупателем и продавцом,
// опционально привязанный к товару
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	BuyerID       uuid.UUID  `json:"buyer_id"`
	SellerID      uuid.UUID  `json:"seller_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	Product     *Product `json:"product,omitempty"`
	Buyer       *Profile `json:"buyer,omitempty"`
	Seller      *Profile `json:"seller,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

// HasParticipant сообщает, является ли пользователь участником диалога
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Message представляет сообщение в диалоге. После создания изменяется
// только флаг is_read, и только в направлении false→true
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`

	// Дополнительные поля для API
	Sender *Profile `json:"sender,omitempty"`
}
