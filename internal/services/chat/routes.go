package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API диалогов
func (s *ChatService) SetupRoutes(app *fiber.App) {
	// Группа для API диалогов
	api := app.Group("/api/chats")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения всех диалогов пользователя
	api.Get("/", s.GetChatsHandler)

	// Маршрут для начала диалога
	api.Post("/", s.CreateChatHandler)

	// Маршрут для получения одного диалога
	api.Get("/:id", s.GetChatHandler)

	// Маршрут для получения сообщений диалога
	api.Get("/:id/messages", s.GetMessagesHandler)

	// Маршрут для отправки сообщения
	api.Post("/:id/messages", s.SendMessageHandler)

	// Маршрут для отметки сообщений прочитанными
	api.Post("/:id/read", s.MarkReadHandler)
}
