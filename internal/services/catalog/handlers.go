package catalog

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/db"
	"github.com/mkornilova/baraholka-api/internal/middleware"
	"github.com/mkornilova/baraholka-api/internal/models"
)

// GetProductsHandler возвращает публичный список товаров
// с фильтрацией, поиском и пагинацией
func (s *CatalogService) GetProductsHandler(c fiber.Ctx) error {
	filter := models.ProductFilter{
		Search: c.Query("search"),
		Sort:   c.Query("sort", models.ProductSortLatest),
	}

	if categoryStr := c.Query("category_id"); categoryStr != "" {
		categoryID, err := strconv.ParseInt(categoryStr, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID категории"})
		}
		id := int32(categoryID)
		filter.CategoryID = &id
	}

	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset", "0"))

	ctx, cancel := db.GetContext()
	defer cancel()

	products, total, err := s.List(ctx, filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// GetMyProductsHandler возвращает объявления текущего продавца
func (s *CatalogService) GetMyProductsHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	filter := models.ProductFilter{
		Sort: c.Query("sort", models.ProductSortLatest),
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset", "0"))

	ctx, cancel := db.GetContext()
	defer cancel()

	products, total, err := s.MyProducts(ctx, userID, filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// GetProductHandler возвращает страницу товара
func (s *CatalogService) GetProductHandler(c fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	product, err := s.Get(ctx, productID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"product": product})
}

// GetCategoriesHandler возвращает справочник категорий
func (s *CatalogService) GetCategoriesHandler(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	categories, err := s.Categories(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"categories": categories})
}

// CreateProductHandler публикует новое объявление
func (s *CatalogService) CreateProductHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var input ProductInput
	if err := c.Bind().Body(&input); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	product, err := s.Create(ctx, userID, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"product": product,
		"success": true,
	})
}

// UpdateProductHandler обновляет объявление владельца
func (s *CatalogService) UpdateProductHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	var input ProductInput
	if err := c.Bind().Body(&input); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	product, err := s.Update(ctx, productID, userID, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"product": product,
		"success": true,
	})
}

// DeleteProductHandler удаляет объявление владельца
func (s *CatalogService) DeleteProductHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.Delete(ctx, productID, userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func respondError(c fiber.Ctx, err error) error {
	if apperr.IsInternal(err) {
		log.Printf("Ошибка сервиса каталога: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
	}
	return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}
