package upload

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API загрузки изображений
func (s *UploadService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/upload")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для серверной загрузки изображения
	api.Post("/image", s.UploadImageHandler)

	// Маршрут для получения параметров прямой загрузки
	api.Get("/params", s.GenerateUploadParamsHandler)
}
