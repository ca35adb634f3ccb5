package catalog

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API каталога
func (s *CatalogService) SetupRoutes(app *fiber.App) {
	auth := middleware.AuthMiddleware(s.jwtService)

	// Публичные маршруты
	app.Get("/api/products", s.GetProductsHandler)
	app.Get("/api/categories", s.GetCategoriesHandler)

	// Маршрут своих объявлений встает раньше "/:id",
	// иначе "my" разбирался бы как ID товара
	app.Get("/api/products/my", s.GetMyProductsHandler, auth)
	app.Get("/api/products/:id", s.GetProductHandler)

	// Защищенные маршруты (требуют авторизации)
	api := app.Group("/api/products")
	api.Use(auth)

	// Маршрут для создания объявления
	api.Post("/", s.CreateProductHandler)

	// Маршрут для обновления объявления
	api.Put("/:id", s.UpdateProductHandler)

	// Маршрут для удаления объявления
	api.Delete("/:id", s.DeleteProductHandler)
}
