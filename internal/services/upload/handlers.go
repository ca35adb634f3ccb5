package upload

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/middleware"
)

// UploadImageHandler принимает файл изображения, проверяет его
// и загружает в Cloudinary, возвращая публичный URL
func (s *UploadService) UploadImageHandler(c fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	if s.cld == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Хранилище изображений не настроено"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Файл не передан"})
	}

	if err := ValidateImage(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size); err != nil {
		return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Ошибка открытия файла: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка чтения файла"})
	}
	defer file.Close()

	publicID := fmt.Sprintf("%s/%d", userID, time.Now().UnixNano())

	// Загрузка во внешнее хранилище может идти дольше обычного запроса к БД
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   s.cfg.CloudinaryConfig.UploadFolder,
		PublicID: publicID,
	})
	if err != nil {
		log.Printf("Ошибка загрузки в Cloudinary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка загрузки изображения"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url":       resp.SecureURL,
		"public_id": resp.PublicID,
		"success":   true,
	})
}

// GenerateUploadParamsHandler создаёт подписанные параметры
// для прямой загрузки из клиента
func (s *UploadService) GenerateUploadParamsHandler(c fiber.Ctx) error {
	if _, ok := middleware.CurrentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	// Генерируем ID группы загрузки, если не передан
	uploadGroupID := c.Query("upload_group_id")
	if uploadGroupID == "" {
		uploadGroupID = uuid.New().String()
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := map[string]string{
		"timestamp": timestamp,
		"folder":    s.cfg.CloudinaryConfig.UploadFolder,
	}
	signature := s.GenerateSignature(params)

	return c.JSON(fiber.Map{
		"timestamp":       timestamp,
		"signature":       signature,
		"api_key":         s.cfg.CloudinaryConfig.APIKey,
		"cloud_name":      s.cfg.CloudinaryConfig.CloudName,
		"folder":          s.cfg.CloudinaryConfig.UploadFolder,
		"upload_group_id": uploadGroupID,
	})
}
