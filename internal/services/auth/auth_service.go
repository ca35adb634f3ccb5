package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/models"
	"github.com/mkornilova/baraholka-api/internal/utils"
)

// Store — контракт хранилища профилей
type Store interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpsertTelegramProfile(ctx context.Context, telegramID int64, nickname, avatarURL string) (*models.Profile, error)
}

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	store      Store
	jwtService *utils.JWTService
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config, store Store) *AuthService {
	return &AuthService{
		cfg:        cfg,
		store:      store,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// Register создает профиль и возвращает его вместе с токеном
func (s *AuthService) Register(ctx context.Context, email, password, nickname string) (*models.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	nickname = strings.TrimSpace(nickname)

	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: некорректный email", apperr.ErrValidation)
	}
	if len([]rune(nickname)) < 2 {
		return nil, "", fmt.Errorf("%w: никнейм должен быть не короче 2 символов", apperr.ErrValidation)
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("%w: пароль должен быть не короче 6 символов", apperr.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	profile := &models.Profile{
		ID:           uuid.New(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(profile.ID.String())
	if err != nil {
		return nil, "", fmt.Errorf("ошибка создания токена: %w", err)
	}
	return profile, token, nil
}

// Login проверяет учетные данные и возвращает профиль с токеном.
// Какое именно поле не подошло, наружу не сообщается
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: неверный email или пароль", apperr.ErrValidation)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: неверный email или пароль", apperr.ErrValidation)
	}

	token, err := s.jwtService.GenerateToken(profile.ID.String())
	if err != nil {
		return nil, "", fmt.Errorf("ошибка создания токена: %w", err)
	}
	return profile, token, nil
}

// CurrentProfile возвращает профиль текущего пользователя
func (s *AuthService) CurrentProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.store.GetProfileByID(ctx, userID)
}
