package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/models"
)

// UserStore выполняет запросы к таблице profiles
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore создает новый экземпляр UserStore
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// CreateProfile регистрирует новый профиль. Повторная регистрация
// email возвращает ошибку валидации
func (s *UserStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
        INSERT INTO profiles (id, email, nickname, avatar_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, profile.ID, profile.Email, profile.Nickname, profile.AvatarURL, profile.PasswordHash,
		profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email уже зарегистрирован", apperr.ErrValidation)
		}
		return fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return nil
}

// GetProfileByEmail возвращает профиль с хешем пароля для проверки входа
func (s *UserStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	var profileEmail pgtype.Text
	err := s.pool.QueryRow(ctx, `
        SELECT id, email, nickname, avatar_url, password_hash, created_at, updated_at
        FROM profiles
        WHERE email = $1
    `, email).Scan(
		&profile.ID,
		&profileEmail,
		&profile.Nickname,
		&profile.AvatarURL,
		&profile.PasswordHash,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска профиля: %w", err)
	}
	if profileEmail.Valid {
		profile.Email = profileEmail.String
	}
	return &profile, nil
}

// GetProfileByID возвращает профиль по идентификатору
func (s *UserStore) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	var profileEmail pgtype.Text
	err := s.pool.QueryRow(ctx, `
        SELECT id, email, nickname, avatar_url, created_at, updated_at
        FROM profiles
        WHERE id = $1
    `, id).Scan(
		&profile.ID,
		&profileEmail,
		&profile.Nickname,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	if profileEmail.Valid {
		profile.Email = profileEmail.String
	}
	return &profile, nil
}

// UpsertTelegramProfile создает профиль по данным Telegram Mini App
// или обновляет существующий и возвращает его
func (s *UserStore) UpsertTelegramProfile(ctx context.Context, telegramID int64, nickname, avatarURL string) (*models.Profile, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var profile models.Profile
	var profileEmail pgtype.Text
	err = tx.QueryRow(ctx, `
        SELECT id, email, nickname, avatar_url, created_at, updated_at
        FROM profiles
        WHERE telegram_id = $1
    `, telegramID).Scan(
		&profile.ID,
		&profileEmail,
		&profile.Nickname,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if profileEmail.Valid {
		profile.Email = profileEmail.String
	}

	now := time.Now()
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		profile = models.Profile{
			ID:        uuid.New(),
			Nickname:  nickname,
			AvatarURL: avatarURL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO profiles (id, nickname, avatar_url, telegram_id, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, profile.ID, profile.Nickname, profile.AvatarURL, telegramID, now, now)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания Telegram профиля: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("ошибка поиска Telegram профиля: %w", err)
	default:
		// Подтягиваем актуальные имя и аватар из Telegram
		profile.Nickname = nickname
		profile.AvatarURL = avatarURL
		profile.UpdatedAt = now
		_, err = tx.Exec(ctx, `
            UPDATE profiles
            SET nickname = $1, avatar_url = $2, updated_at = $3
            WHERE telegram_id = $4
        `, nickname, avatarURL, now, telegramID)
		if err != nil {
			return nil, fmt.Errorf("ошибка обновления Telegram профиля: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return &profile, nil
}
