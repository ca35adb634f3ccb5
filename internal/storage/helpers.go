package storage

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkornilova/baraholka-api/internal/models"
)

// getProfileInfo получает базовую информацию о пользователе.
// При ошибке возвращает nil: карточка участника — необязательное украшение ответа
func getProfileInfo(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) *models.Profile {
	var profile models.Profile
	err := pool.QueryRow(ctx, `
        SELECT id, nickname, avatar_url, created_at, updated_at
        FROM profiles
        WHERE id = $1
    `, id).Scan(
		&profile.ID,
		&profile.Nickname,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		log.Printf("Ошибка получения данных пользователя %s: %v", id, err)
		return nil
	}
	return &profile
}

// getProductInfo получает краткую информацию о товаре диалога.
// Товар мог быть удален продавцом — тогда возвращается nil
func getProductInfo(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) *models.Product {
	var product models.Product
	err := pool.QueryRow(ctx, `
        SELECT id, seller_id, title, price, status, images, created_at, updated_at
        FROM products
        WHERE id = $1
    `, id).Scan(
		&product.ID,
		&product.SellerID,
		&product.Title,
		&product.Price,
		&product.Status,
		&product.Images,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil
	}
	return &product
}
