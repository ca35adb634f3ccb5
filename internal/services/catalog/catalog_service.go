package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/models"
	"github.com/mkornilova/baraholka-api/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store — контракт хранилища товаров и категорий
type Store interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CatalogService представляет сервис каталога объявлений
type CatalogService struct {
	cfg        *config.Config
	store      Store
	jwtService *utils.JWTService
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(cfg *config.Config, store Store) *CatalogService {
	return &CatalogService{
		cfg:        cfg,
		store:      store,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// ProductInput — данные создания или обновления объявления
type ProductInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	CategoryID  int32    `json:"category_id"`
	Status      string   `json:"status,omitempty"`
	Images      []string `json:"images"`
}

func (in *ProductInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return fmt.Errorf("%w: название обязательно", apperr.ErrValidation)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: описание обязательно", apperr.ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: цена не может быть отрицательной", apperr.ErrValidation)
	}
	if in.CategoryID <= 0 {
		return fmt.Errorf("%w: категория не указана", apperr.ErrValidation)
	}
	if in.Status == "" {
		in.Status = models.ProductStatusSelling
	}
	if !models.ValidProductStatus(in.Status) {
		return fmt.Errorf("%w: неизвестный статус товара", apperr.ErrValidation)
	}
	return nil
}

// List возвращает страницу товаров по фильтру
func (s *CatalogService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	switch filter.Sort {
	case models.ProductSortLatest, models.ProductSortPriceAsc, models.ProductSortPriceDesc:
	default:
		filter.Sort = models.ProductSortLatest
	}
	return s.store.ListProducts(ctx, filter)
}

// MyProducts возвращает страницу объявлений самого продавца,
// включая снятые с продажи
func (s *CatalogService) MyProducts(ctx context.Context, sellerID uuid.UUID, filter models.ProductFilter) ([]models.Product, int, error) {
	filter.SellerID = &sellerID
	return s.List(ctx, filter)
}

// Get возвращает товар и увеличивает счетчик просмотров.
// Счетчик витринный: сбой инкремента не прерывает выдачу
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.IncrementViewCount(ctx, id); err != nil {
		log.Printf("Ошибка инкремента просмотров товара %s: %v", id, err)
	} else {
		product.ViewCount++
	}

	return product, nil
}

// Create публикует новое объявление от имени продавца
func (s *CatalogService) Create(ctx context.Context, sellerID uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Status:      input.Status,
		Images:      input.Images,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update обновляет объявление. Разрешено только владельцу
func (s *CatalogService) Update(ctx context.Context, productID, callerID uuid.UUID, input ProductInput) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != callerID {
		return nil, apperr.ErrForbidden
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	product.Title = input.Title
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.Status = input.Status
	product.Images = input.Images

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete удаляет объявление. Разрешено только владельцу
func (s *CatalogService) Delete(ctx context.Context, productID, callerID uuid.UUID) error {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != callerID {
		return apperr.ErrForbidden
	}
	return s.store.DeleteProduct(ctx, productID)
}

// Categories возвращает справочник категорий
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}
