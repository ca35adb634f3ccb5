package auth

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/db"
	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// RegisterHandler регистрирует нового пользователя
func (s *AuthService) RegisterHandler(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	profile, token, err := s.Register(ctx, requestData.Email, requestData.Password, requestData.Nickname)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  profile,
	})
}

// LoginHandler выполняет вход по email и паролю
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	profile, token, err := s.Login(ctx, requestData.Email, requestData.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  profile,
	})
}

// MeHandler возвращает профиль текущего пользователя
func (s *AuthService) MeHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	profile, err := s.CurrentProfile(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": profile})
}

// LogoutHandler завершает сессию. Токены не хранятся на сервере,
// клиент просто перестает использовать свой JWT
func (s *AuthService) LogoutHandler(c fiber.Ctx) error {
	if _, ok := middleware.CurrentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// PublicProfileHandler возвращает публичную карточку пользователя
// без email и других приватных полей
func (s *AuthService) PublicProfileHandler(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	profile, err := s.store.GetProfileByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": profile.PublicProfile()})
}

// TelegramAuthHandler проверяет initData Telegram Mini App,
// создает или обновляет профиль и возвращает JWT
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Проверяем подпись initData
	expiration := 24 * time.Hour
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Невалидные данные Telegram"})
	}

	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ошибка разбора initData"})
	}

	nickname := data.User.Username
	if nickname == "" {
		nickname = data.User.FirstName
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	profile, err := s.store.UpsertTelegramProfile(ctx, data.User.ID, nickname, data.User.PhotoURL)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.jwtService.GenerateToken(profile.ID.String())
	if err != nil {
		log.Printf("Ошибка создания токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания токена"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  profile,
	})
}

func respondError(c fiber.Ctx, err error) error {
	if apperr.IsInternal(err) {
		log.Printf("Ошибка сервиса авторизации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
	}
	return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}
