package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы товара
const (
	ProductStatusSelling  = "selling"
	ProductStatusReserved = "reserved"
	ProductStatusSold     = "sold"
)

// ValidProductStatus проверяет, что статус входит в допустимый список
func ValidProductStatus(status string) bool {
	switch status {
	case ProductStatusSelling, ProductStatusReserved, ProductStatusSold:
		return true
	}
	return false
}

// Product представляет товарное объявление
type Product struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	CategoryID  int32     `json:"category_id"`
	Status      string    `json:"status"`
	Images      []string  `json:"images"` // первое изображение — обложка
	ViewCount   int       `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Seller   *Profile  `json:"seller,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// Сортировки списка товаров
const (
	ProductSortLatest    = "latest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
)

// ProductFilter описывает параметры выборки списка товаров
type ProductFilter struct {
	CategoryID *int32
	SellerID   *uuid.UUID // только объявления этого продавца
	Search     string     // подстрока в названии, без учета регистра
	Sort       string
	Limit      int
	Offset     int
}
