package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkornilova/baraholka-api/internal/models"
)

// FavoriteStore выполняет запросы к таблице favorites
type FavoriteStore struct {
	pool *pgxpool.Pool
}

// NewFavoriteStore создает новый экземпляр FavoriteStore
func NewFavoriteStore(pool *pgxpool.Pool) *FavoriteStore {
	return &FavoriteStore{pool: pool}
}

// AddFavorite добавляет товар в избранное. Повторное добавление
// возвращает существующую запись
func (s *FavoriteStore) AddFavorite(ctx context.Context, userID, productID uuid.UUID) (*models.Favorite, error) {
	fav := models.Favorite{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	_, err := s.pool.Exec(ctx, `
        INSERT INTO favorites (id, user_id, product_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, product_id) DO NOTHING
    `, fav.ID, fav.UserID, fav.ProductID, fav.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка добавления в избранное: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
        SELECT id, created_at FROM favorites WHERE user_id = $1 AND product_id = $2
    `, userID, productID).Scan(&fav.ID, &fav.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения избранного: %w", err)
	}

	return &fav, nil
}

// RemoveFavorite убирает товар из избранного
func (s *FavoriteStore) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
        DELETE FROM favorites WHERE user_id = $1 AND product_id = $2
    `, userID, productID)
	if err != nil {
		return fmt.Errorf("ошибка удаления из избранного: %w", err)
	}
	return nil
}

// IsFavorite проверяет, находится ли товар в избранном пользователя
func (s *FavoriteStore) IsFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)
    `, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки избранного: %w", err)
	}
	return exists, nil
}

// ListFavorites возвращает страницу избранных товаров пользователя
func (s *FavoriteStore) ListFavorites(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Favorite, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM favorites WHERE user_id = $1
    `, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета избранного: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
        SELECT f.id, f.user_id, f.product_id, f.created_at,
               p.id, p.seller_id, p.title, p.description, p.price, p.category_id,
               p.status, p.images, p.view_count, p.created_at, p.updated_at
        FROM favorites f
        JOIN products p ON p.id = f.product_id
        WHERE f.user_id = $1
        ORDER BY f.created_at DESC
        LIMIT $2 OFFSET $3
    `, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка запроса избранного: %w", err)
	}
	defer rows.Close()

	var favorites []models.Favorite
	for rows.Next() {
		var fav models.Favorite
		var p models.Product
		if err := rows.Scan(
			&fav.ID,
			&fav.UserID,
			&fav.ProductID,
			&fav.CreatedAt,
			&p.ID,
			&p.SellerID,
			&p.Title,
			&p.Description,
			&p.Price,
			&p.CategoryID,
			&p.Status,
			&p.Images,
			&p.ViewCount,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования избранного: %w", err)
		}
		fav.Product = &p
		favorites = append(favorites, fav)
	}

	return favorites, total, rows.Err()
}
