package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite представляет запись избранного товара
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	// Дополнительные поля для API
	Product *Product `json:"product,omitempty"`
}
