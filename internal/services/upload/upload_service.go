package upload

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/utils"
)

// Ограничения загружаемых изображений
const MaxImageSize = 5 * 1024 * 1024 // 5MB

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadService отвечает за загрузку изображений в Cloudinary
type UploadService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	cld        *cloudinary.Cloudinary
}

// NewUploadService создает новый экземпляр UploadService.
// Без учетных данных Cloudinary сервис поднимается, но загрузка недоступна
func NewUploadService(cfg *config.Config) *UploadService {
	s := &UploadService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}

	cc := cfg.CloudinaryConfig
	if cc.CloudName != "" && cc.APIKey != "" && cc.APISecret != "" {
		cld, err := cloudinary.NewFromParams(cc.CloudName, cc.APIKey, cc.APISecret)
		if err == nil {
			s.cld = cld
		}
	}

	return s
}

// ValidateImage проверяет файл до загрузки: и заявленный тип,
// и расширение, и размер
func ValidateImage(filename, contentType string, size int64) error {
	if !allowedContentTypes[strings.ToLower(contentType)] {
		return fmt.Errorf("%w: неподдерживаемый тип файла (только JPEG, PNG, GIF, WebP)", apperr.ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: неподдерживаемое расширение файла", apperr.ErrValidation)
	}

	if size > MaxImageSize {
		return fmt.Errorf("%w: файл слишком большой (максимум 5MB)", apperr.ErrValidation)
	}

	return nil
}

// GenerateSignature создаёт подпись параметров для прямой загрузки в Cloudinary
func (s *UploadService) GenerateSignature(params map[string]string) string {
	// Сортируем ключи параметров
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Формируем строку для подписи
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// Добавляем API-секрет в конец строки
	signatureString += s.cfg.CloudinaryConfig.APISecret

	h := sha1.New()
	h.Write([]byte(signatureString))
	return hex.EncodeToString(h.Sum(nil))
}
