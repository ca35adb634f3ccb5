package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/register", s.RegisterHandler)
	app.Post("/api/auth/login", s.LoginHandler)
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)

	// Публичная карточка пользователя
	app.Get("/api/users/:id", s.PublicProfileHandler)

	// Защищенные маршруты
	protected := app.Group("/api/profile")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/", s.MeHandler)

	logout := app.Group("/api/auth/logout")
	logout.Use(middleware.AuthMiddleware(s.jwtService))
	logout.Post("/", s.LogoutHandler)
}
