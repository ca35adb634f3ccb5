package chat

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/db"
	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// GetChatsHandler возвращает список диалогов пользователя
func (s *ChatService) GetChatsHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conversations, err := s.ListConversations(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// CreateChatHandler начинает диалог с продавцом, опционально
// с первым сообщением
func (s *ChatService) CreateChatHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		SellerID  string `json:"seller_id"`
		ProductID string `json:"product_id,omitempty"`
		Message   string `json:"message,omitempty"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	sellerUUID, err := uuid.Parse(requestData.SellerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID продавца"})
	}

	var productID *uuid.UUID
	if requestData.ProductID != "" {
		parsed, err := uuid.Parse(requestData.ProductID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
		}
		productID = &parsed
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conv, isNew, err := s.StartConversation(ctx, userID, sellerUUID, productID)
	if err != nil {
		return respondError(c, err)
	}

	// Если передано первое сообщение, сразу отправляем его
	if requestData.Message != "" {
		if _, err := s.SendMessage(ctx, conv.ID, userID, requestData.Message); err != nil {
			return respondError(c, err)
		}
	}

	status := fiber.StatusOK
	if isNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"conversation_id": conv.ID,
		"is_new":          isNew,
		"success":         true,
	})
}

// GetChatHandler возвращает один диалог
func (s *ChatService) GetChatHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conv, err := s.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"conversation": conv})
}

// GetMessagesHandler возвращает сообщения диалога
func (s *ChatService) GetMessagesHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	messages, err := s.ListMessages(ctx, conversationID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessageHandler отправляет новое сообщение
func (s *ChatService) SendMessageHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	var requestData struct {
		Content string `json:"content"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	msg, err := s.SendMessage(ctx, conversationID, userID, requestData.Content)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": msg,
		"success": true,
	})
}

// MarkReadHandler помечает сообщения диалога прочитанными
func (s *ChatService) MarkReadHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.MarkRead(ctx, conversationID, userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// respondError переводит ошибку бизнес-логики в HTTP-ответ.
// Неклассифицированные сбои логируются и отдаются общим сообщением
func respondError(c fiber.Ctx, err error) error {
	if apperr.IsInternal(err) {
		log.Printf("Ошибка сервиса чатов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
	}
	return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}
