package favorite

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API избранного
func (s *FavoriteService) SetupRoutes(app *fiber.App) {
	// Группа для API избранного
	api := app.Group("/api/favorites")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения списка избранных товаров
	api.Get("/", s.GetFavoritesHandler)

	// Маршрут для добавления товара в избранное
	api.Post("/", s.AddToFavoritesHandler)

	// Маршрут для удаления товара из избранного
	api.Delete("/:id", s.RemoveFromFavoritesHandler)

	// Маршрут для проверки, находится ли товар в избранном
	api.Get("/:id/check", s.CheckFavoriteHandler)
}
