package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/models"
)

// ProductStore выполняет запросы к таблицам products и categories
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore создает новый экземпляр ProductStore
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// ListProducts возвращает страницу товаров по фильтру и общее количество
func (s *ProductStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		where = append(where, fmt.Sprintf("p.seller_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("p.title ILIKE $%d", len(args)))
	}

	var orderBy string
	switch filter.Sort {
	case models.ProductSortPriceAsc:
		orderBy = "p.price ASC, p.created_at DESC"
	case models.ProductSortPriceDesc:
		orderBy = "p.price DESC, p.created_at DESC"
	default:
		orderBy = "p.created_at DESC"
	}

	whereClause := strings.Join(where, " AND ")

	// Общее количество для пагинации
	var total int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM products p WHERE "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета товаров: %w", err)
	}

	args = append(args, filter.Limit)
	limitArg := len(args)
	args = append(args, filter.Offset)
	offsetArg := len(args)

	query := fmt.Sprintf(`
        SELECT p.id, p.seller_id, p.title, p.description, p.price, p.category_id,
               p.status, p.images, p.view_count, p.created_at, p.updated_at,
               pr.nickname, pr.avatar_url,
               c.id, c.name, c.slug, c.icon, c.created_at
        FROM products p
        JOIN profiles pr ON pr.id = p.seller_id
        JOIN categories c ON c.id = p.category_id
        WHERE %s
        ORDER BY %s
        LIMIT $%d OFFSET $%d
    `, whereClause, orderBy, limitArg, offsetArg)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка запроса товаров: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		var seller models.Profile
		var category models.Category

		if err := rows.Scan(
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
			&seller.Nickname,
			&seller.AvatarURL,
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Icon,
			&category.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования товара: %w", err)
		}

		seller.ID = p.SellerID
		p.Seller = &seller
		p.Category = &category
		products = append(products, p)
	}

	return products, total, rows.Err()
}

// GetProduct возвращает товар с данными продавца и категории
func (s *ProductStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	var seller models.Profile
	var category models.Category

	err := s.pool.QueryRow(ctx, `
        SELECT p.id, p.seller_id, p.title, p.description, p.price, p.category_id,
               p.status, p.images, p.view_count, p.created_at, p.updated_at,
               pr.nickname, pr.avatar_url,
               c.id, c.name, c.slug, c.icon, c.created_at
        FROM products p
        JOIN profiles pr ON pr.id = p.seller_id
        JOIN categories c ON c.id = p.category_id
        WHERE p.id = $1
    `, id).Scan(
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
		&seller.Nickname,
		&seller.AvatarURL,
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Icon,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}

	seller.ID = p.SellerID
	p.Seller = &seller
	p.Category = &category
	return &p, nil
}

// IncrementViewCount увеличивает счетчик просмотров. Счетчик витринный,
// ошибки не прерывают выдачу страницы товара
func (s *ProductStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
        UPDATE products SET view_count = view_count + 1 WHERE id = $1
    `, id)
	return err
}

// CreateProduct вставляет новое объявление
func (s *ProductStore) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
        INSERT INTO products (id, seller_id, title, description, price, category_id, status, images, view_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
    `, p.ID, p.SellerID, p.Title, p.Description, p.Price, p.CategoryID, p.Status, p.Images, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения объявления: %w", err)
	}
	return nil
}

// UpdateProduct обновляет объявление. Проверка владельца выполняется выше,
// в сервисе каталога
func (s *ProductStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()

	_, err := s.pool.Exec(ctx, `
        UPDATE products
        SET title = $1, description = $2, price = $3, category_id = $4, status = $5, images = $6, updated_at = $7
        WHERE id = $8
    `, p.Title, p.Description, p.Price, p.CategoryID, p.Status, p.Images, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления объявления: %w", err)
	}
	return nil
}

// DeleteProduct удаляет объявление
func (s *ProductStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления объявления: %w", err)
	}
	return nil
}

// ListCategories возвращает справочник категорий
func (s *ProductStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, name, slug, icon, created_at
        FROM categories
        ORDER BY id ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса категорий: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
